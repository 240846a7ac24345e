package handle

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/array"
	"github.com/joshuapare/memkit/mem/inttable"
)

// RefMode selects how a registered value's lifetime is managed.
type RefMode uint8

const (
	// Counted values are destroyed when their last handle is dropped.
	Counted RefMode = iota
	// Always values are never counted or destroyed by the registry.
	Always
)

func (m RefMode) String() string {
	switch m {
	case Counted:
		return "counted"
	case Always:
		return "always"
	}
	return "unknown"
}

// meta is the bookkeeping stored in front of every value.
type meta struct {
	id   uint64
	refs int32
	mode RefMode
}

func (m *meta) destroyed() bool { return m.mode == Counted && m.refs == 0 }

type entry[T any] struct {
	meta
	value T
}

type options struct {
	log *zap.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the logger for slot growth, destruction and compaction.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Registry owns values of type T and resolves Handles to them.
type Registry[T any] struct {
	slots   *array.Array[entry[T]]
	ids     *inttable.Table // id -> slot index
	nextID  uint64
	destroy func(*T)
	log     *zap.Logger
}

// New creates a registry with room for capacity values, allocating from a
// (Heap when nil). destroy may be nil.
func New[T any](a alloc.Allocator, capacity int, destroy func(*T), opts ...Option) (*Registry[T], error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	slots, err := array.WithCapacity[entry[T]](a, capacity)
	if err != nil {
		return nil, errors.Wrap(err, "handle: allocate slots")
	}
	ids, err := inttable.New(a, capacity, 0)
	if err != nil {
		_ = slots.Free()
		return nil, errors.Wrap(err, "handle: allocate id map")
	}
	return &Registry[T]{
		slots:   slots,
		ids:     ids,
		nextID:  1,
		destroy: destroy,
		log:     o.log,
	}, nil
}

// Register stores value and returns a handle to it. Counted values start
// with a reference count of 1.
func (r *Registry[T]) Register(value T, mode RefMode) (Handle[T], error) {
	if r.ids == nil {
		return Handle[T]{}, errors.AssertionFailedf("handle: use after Free")
	}
	id := r.nextID
	idx := r.slots.Len()
	oldCap := r.slots.Cap()

	if err := r.slots.Push(entry[T]{meta: meta{id: id, refs: 1, mode: mode}, value: value}); err != nil {
		return Handle[T]{}, errors.Wrapf(err, "handle: register id %d", id)
	}
	if err := r.ids.Set(id, uint64(idx)); err != nil {
		r.slots.Pop()
		return Handle[T]{}, errors.Wrapf(err, "handle: map id %d", id)
	}
	r.nextID++

	if r.slots.Cap() != oldCap {
		r.log.Debug("slot array grew",
			zap.Int("from", oldCap),
			zap.Int("to", r.slots.Cap()))
	}
	return Handle[T]{ID: id, reg: r}, nil
}

// lookup resolves id to its entry, or nil.
func (r *Registry[T]) lookup(id uint64) *entry[T] {
	if id == 0 || r.ids == nil {
		return nil
	}
	idx, ok := r.ids.Get(id)
	if !ok {
		return nil
	}
	return r.slots.Ptr(int(idx))
}

// Lookup returns a handle for id without touching its reference count.
// Destroyed values are not found.
func (r *Registry[T]) Lookup(id uint64) (Handle[T], bool) {
	e := r.lookup(id)
	if e == nil || e.destroyed() {
		return Handle[T]{}, false
	}
	return Handle[T]{ID: id, reg: r}, true
}

// Len returns the number of occupied slots, destroyed ones included.
func (r *Registry[T]) Len() int { return r.slots.Len() }

// Live returns the number of values that have not been destroyed.
func (r *Registry[T]) Live() int {
	n := 0
	for _, e := range r.slots.Items() {
		if !e.destroyed() {
			n++
		}
	}
	return n
}

// Each calls fn for every live value in slot order until fn returns false.
// v is only valid for the duration of the call.
func (r *Registry[T]) Each(fn func(id uint64, v *T) bool) {
	items := r.slots.Items()
	for i := range items {
		if e := &items[i]; !e.destroyed() && !fn(e.id, &e.value) {
			return
		}
	}
}

// Compact removes destroyed slots, moving later slots into the gaps and
// repointing their ids. It returns the number of slots reclaimed. Ids of
// removed slots are forgotten, so any stale handle to them resolves to
// nothing.
func (r *Registry[T]) Compact() (int, error) {
	if r.ids == nil {
		return 0, errors.AssertionFailedf("handle: use after Free")
	}
	removed := 0
	for i := 0; i < r.slots.Len(); {
		e := r.slots.Ptr(i)
		if !e.destroyed() {
			i++
			continue
		}
		r.ids.Delete(e.id)
		r.slots.RemoveSwap(i)
		removed++
		if i < r.slots.Len() {
			moved := r.slots.Ptr(i)
			if err := r.ids.Set(moved.id, uint64(i)); err != nil {
				return removed, errors.Wrapf(err, "handle: repoint id %d", moved.id)
			}
		}
	}
	if removed > 0 {
		r.log.Debug("compacted registry",
			zap.Int("reclaimed", removed),
			zap.Int("slots", r.slots.Len()))
	}
	return removed, nil
}

// Free releases the slot array and the id map. Destructors are not run for
// values that are still live.
func (r *Registry[T]) Free() error {
	if live := r.Live(); live > 0 {
		r.log.Debug("freeing registry with live values", zap.Int("live", live))
	}
	err := r.slots.Free()
	if r.ids != nil {
		err = errors.CombineErrors(err, r.ids.Free())
		r.ids = nil
	}
	if err != nil {
		return errors.Wrap(err, "handle: free")
	}
	return nil
}
