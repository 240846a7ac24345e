// Package alloc defines the byte allocation capability every other mem package
// is built on.
//
// # Overview
//
// An Allocator has a single operation, Reallocate, which covers allocation,
// resizing and release:
//
//	buf, err := a.Reallocate(nil, 256)  // fresh, zeroed 256 bytes
//	buf, err = a.Reallocate(buf, 1024)  // resized, first 256 bytes preserved
//	_, err = a.Reallocate(buf, 0)       // released
//
// The length of the slice handed back in is the "old size". Callers own the
// buffers they receive and must return them to the same allocator.
//
// # Implementations
//
//   - Heap: the Go heap. Stateless; the default whenever a constructor receives a nil Allocator.
//   - Pages: anonymous page mappings (mmap) outside the Go heap.
//   - Tracker: debug wrapper that indexes live blocks, enforces a byte budget
//     and rejects double frees.
//   - Func: adapts a plain function (plus whatever it closes over) to Allocator.
//
// The arena package adds bump allocators that also satisfy Allocator.
//
// # Typed Storage
//
// Resize, Make and Release map []T onto an Allocator. Memory that does not
// come from the Go heap is invisible to the garbage collector, so element
// types holding pointers may only be placed with Heap:
//
//	slots, err := alloc.Make[slot](pages, 1024) // ok, slot is pointer-free
//	names, err := alloc.Make[string](pages, 8)  // ErrPointerType
//
// # Failure Model
//
// A failed Reallocate leaves the input buffer untouched and still owned by
// the caller. Growth in the container packages relies on this to either fully
// succeed or leave the container unchanged.
//
// # Thread Safety
//
// Heap and Func carry no state of their own. Pages and Tracker are safe for
// concurrent use.
package alloc
