// Package array provides a growable, allocator-backed array.
//
// Array[T] is the typed form of a header-plus-elements buffer: elements live
// in storage obtained from an alloc.Allocator and the array doubles its
// capacity when a push finds it full (minimum 4). Growth is atomic: when the
// allocator refuses, the array and its contents are left exactly as they were
// and the error is returned.
//
// Element types that hold pointers need a Go heap allocator (the default);
// see alloc.Resize.
//
// An Array is not safe for concurrent use.
package array

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/mem/alloc"
)

// minCapacity is the first capacity a growing array jumps to.
const minCapacity = 4

// Array is a growable array of T backed by an alloc.Allocator.
type Array[T any] struct {
	items []T // len is the length, cap is the allocated capacity
	alloc alloc.Allocator
}

// New returns an empty array that allocates from a (Heap when nil).
func New[T any](a alloc.Allocator) *Array[T] {
	return &Array[T]{alloc: alloc.Or(a)}
}

// WithCapacity returns an empty array with room for n elements.
func WithCapacity[T any](a alloc.Allocator, n int) (*Array[T], error) {
	arr := New[T](a)
	if err := arr.Reserve(n); err != nil {
		return nil, err
	}
	return arr, nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.items) }

// Cap returns the allocated capacity.
func (a *Array[T]) Cap() int { return cap(a.items) }

// Push appends v, growing the storage when the array is full.
func (a *Array[T]) Push(v T) error {
	if len(a.items) == cap(a.items) {
		if err := a.grow(len(a.items) + 1); err != nil {
			return err
		}
	}
	a.items = append(a.items, v)
	return nil
}

// Pop removes and returns the last element. ok is false when the array is empty.
func (a *Array[T]) Pop() (v T, ok bool) {
	n := len(a.items)
	if n == 0 {
		return v, false
	}
	v = a.items[n-1]
	a.shrink()
	return v, true
}

// RemoveOrdered removes the element at i, shifting later elements down.
// Order is preserved. O(n).
func (a *Array[T]) RemoveOrdered(i int) {
	_ = a.items[i]
	copy(a.items[i:], a.items[i+1:])
	a.shrink()
}

// RemoveSwap removes the element at i by moving the last element into its
// place. Order is not preserved. O(1).
func (a *Array[T]) RemoveSwap(i int) {
	last := len(a.items) - 1
	a.items[i] = a.items[last]
	a.shrink()
}

// At returns the element at i. It panics if i is out of range.
func (a *Array[T]) At(i int) T { return a.items[i] }

// Ptr returns a pointer to the element at i. The pointer is invalidated by
// any call that may grow the array.
func (a *Array[T]) Ptr(i int) *T { return &a.items[i] }

// Set overwrites the element at i.
func (a *Array[T]) Set(i int, v T) { a.items[i] = v }

// Items returns the elements as a slice sharing the array's storage.
// Like Ptr, the view is only valid until the next growth.
func (a *Array[T]) Items() []T { return a.items }

// Reserve makes sure the array can hold n elements without growing.
func (a *Array[T]) Reserve(n int) error {
	if n <= cap(a.items) {
		return nil
	}
	return a.resize(n)
}

// Clear removes all elements and keeps the storage.
func (a *Array[T]) Clear() {
	clear(a.items)
	a.items = a.items[:0]
}

// Free releases the storage. The array is empty and reusable afterwards.
func (a *Array[T]) Free() error {
	if err := alloc.Release(a.alloc, a.items); err != nil {
		return errors.Wrap(err, "array: free")
	}
	a.items = nil
	return nil
}

// grow doubles the capacity, or jumps to need if that is larger.
func (a *Array[T]) grow(need int) error {
	return a.resize(max(need, 2*cap(a.items), minCapacity))
}

func (a *Array[T]) resize(n int) error {
	items, err := alloc.Resize(a.alloc, a.items, n)
	if err != nil {
		return errors.Wrapf(err, "array: grow from %d to %d elements", cap(a.items), n)
	}
	a.items = items
	return nil
}

// shrink drops the last element, zeroing its slot so nothing stays reachable.
func (a *Array[T]) shrink() {
	last := len(a.items) - 1
	var zero T
	a.items[last] = zero
	a.items = a.items[:last]
}
