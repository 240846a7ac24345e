// Package handle provides stable, reference-counted identities for values
// whose storage may move.
//
// # Overview
//
// A Registry[T] keeps values in one growable array and hands out Handles.
// A Handle carries a 64-bit id rather than an address: ids map to slot
// indexes through an inttable.Table, so growing the array (which relocates
// every slot) never invalidates a handle.
//
//	reg, _ := handle.New[Mesh](nil, 64, func(m *Mesh) { m.Release() })
//	h, _ := reg.Register(mesh, handle.Counted)
//	if m, ok := h.Use(); ok {
//		m.Draw()
//	}
//	_ = h.Drop() // last reference: the destructor runs
//
// Pointers returned by Use are only valid until the next Register or
// Compact on the same registry. Resolve the handle again afterwards.
//
// # Reference Modes
//
// Counted handles start with a count of 1. Copy increments it and Drop
// decrements it; the destructor runs when it reaches zero. Always handles are
// never counted and live until the registry is freed.
//
// # Reclamation
//
// Ids are never reused. Destroyed slots stay in the array until Compact
// removes them and repoints the id map at any slot it moved.
//
// A Registry is not safe for concurrent use.
package handle
