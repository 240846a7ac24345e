package alloc

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/internal/buf"
)

// Resize moves s into storage for n elements obtained from a and returns it.
// The result has cap n and keeps min(len(s), n) elements; anything past the
// old length is zeroed. s must be nil or a slice previously returned by
// Resize or Make on the same allocator, with its full capacity intact.
//
// n == 0 releases the storage and returns nil. On error s is returned
// unchanged together with the error.
func Resize[T any](a Allocator, s []T, n int) ([]T, error) {
	a = Or(a)
	if n < 0 {
		return s, negativeSize(n)
	}

	var zero T
	size := int(unsafe.Sizeof(zero))

	if isHeap(a) || size == 0 {
		if n == 0 {
			return nil, nil
		}
		ns := make([]T, n)
		keep := copy(ns, s)
		return ns[:keep], nil
	}

	if hasPointers(reflect.TypeFor[T]()) {
		return s, errors.Wrapf(ErrPointerType, "alloc: cannot place %s outside the Go heap", reflect.TypeFor[T]())
	}

	total, ok := buf.MulOverflowSafe(n, size)
	if !ok {
		return s, errors.Wrapf(ErrExhausted, "alloc: %d elements of %d bytes overflows", n, size)
	}

	old := bytesOf(s[:cap(s)])
	nb, err := a.Reallocate(old, total)
	if err != nil {
		return s, err
	}
	if n == 0 {
		return nil, nil
	}

	base := unsafe.Pointer(unsafe.SliceData(nb))
	if uintptr(base)%unsafe.Alignof(zero) != 0 {
		_, _ = a.Reallocate(nb, 0)
		return s, errors.AssertionFailedf("alloc: %d-byte block at %p misaligned for %T", total, base, zero)
	}

	ns := unsafe.Slice((*T)(base), n)
	return ns[:min(len(s), n)], nil
}

// Make returns n zeroed elements of T allocated from a.
func Make[T any](a Allocator, n int) ([]T, error) {
	s, err := Resize[T](a, nil, n)
	if err != nil {
		return nil, err
	}
	return s[:n], nil
}

// Release returns storage obtained from Resize or Make to a.
func Release[T any](a Allocator, s []T) error {
	if cap(s) == 0 {
		return nil
	}
	_, err := Resize(a, s, 0)
	return err
}

// bytesOf views the memory behind s as bytes.
func bytesOf[T any](s []T) []byte {
	if cap(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

var pointerCache sync.Map // reflect.Type -> bool

// hasPointers reports whether values of t contain anything the garbage
// collector would need to trace.
func hasPointers(t reflect.Type) bool {
	if v, ok := pointerCache.Load(t); ok {
		return v.(bool)
	}
	p := scanPointers(t)
	pointerCache.Store(t, p)
	return p
}

func scanPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && scanPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if scanPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
