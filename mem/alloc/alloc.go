package alloc

// Allocator is the universal "reallocate these bytes" capability.
//
// Conventions:
//   - buf == nil, size > 0: allocate size fresh zeroed bytes
//   - size == 0: release buf and return nil
//   - otherwise: return size bytes whose prefix matches buf
//
// On error, buf is left untouched and remains owned by the caller.
type Allocator interface {
	Reallocate(buf []byte, size int) ([]byte, error)
}

// Func adapts an ordinary function to the Allocator interface. Any state the
// function needs travels in its closure.
type Func func(buf []byte, size int) ([]byte, error)

// Reallocate implements Allocator.
func (f Func) Reallocate(buf []byte, size int) ([]byte, error) {
	return f(buf, size)
}

// Heap allocates from the Go heap. The zero value is ready to use.
type Heap struct{}

// Reallocate implements Allocator. Release is a no-op; the garbage collector
// reclaims the buffer once the caller drops it.
func (Heap) Reallocate(buf []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, negativeSize(size)
	}
	if size == 0 {
		return nil, nil
	}
	nb := make([]byte, size)
	copy(nb, buf)
	return nb, nil
}

// Or returns a, or Heap when a is nil.
func Or(a Allocator) Allocator {
	if a == nil {
		return Heap{}
	}
	return a
}

// isHeap reports whether memory from a is scanned by the garbage collector.
func isHeap(a Allocator) bool {
	switch a.(type) {
	case Heap, *Heap:
		return true
	}
	return false
}

// Compile-time interface checks
var (
	_ Allocator = Heap{}
	_ Allocator = Func(nil)
)
