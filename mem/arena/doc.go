// Package arena provides fixed-budget bump allocators for frame-scoped memory.
//
// # Overview
//
// An arena reserves one contiguous buffer from a backing alloc.Allocator and
// serves allocations by advancing a cursor. Individual allocations are never
// freed; Reset rewinds the cursor in O(1) and logically invalidates every
// region handed out since the previous Reset. The arena never grows: a
// request that does not fit fails with alloc.ErrExhausted.
//
//	a, err := arena.New(1<<20, nil) // 1 MiB from the Go heap
//	if err != nil {
//	    return err
//	}
//	defer a.Free()
//
//	for frame := range frames {
//	    verts, err := a.Alloc(frame.VertexBytes(), 16)
//	    ...
//	    a.Reset()
//	}
//
// # Two Entry Points
//
//   - Arena: single owner (one goroutine or externally synchronized).
//   - AtomicArena: Alloc may be called from many goroutines at once. The
//     cursor is advanced with a compare-and-swap of exactly padding + size
//     bytes, so it fits the same requests an Arena of the same budget does.
//     Reset and Free still require that no Alloc is in flight.
//
// # Using an Arena as an Allocator
//
// Both types implement alloc.Allocator, so containers can be placed in an
// arena. Every resize is a fresh allocation plus a copy of the old bytes, and
// a release is a no-op; the memory comes back on Reset.
//
// # Alignment
//
// Alignment is computed on absolute addresses. align must be a power of two;
// 0 selects DefaultAlign.
package arena
