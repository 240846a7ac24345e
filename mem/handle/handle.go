package handle

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Handle refers to a value owned by a Registry. The zero Handle is invalid.
type Handle[T any] struct {
	ID  uint64
	reg *Registry[T]
}

// Valid reports whether h has a non-zero id and a registry.
func (h Handle[T]) Valid() bool { return h.ID != 0 && h.reg != nil }

func (h Handle[T]) entry() *entry[T] {
	if !h.Valid() {
		return nil
	}
	return h.reg.lookup(h.ID)
}

// Use returns a pointer to the value in the registry's current storage. The
// pointer must not be kept across a Register or Compact on the registry.
func (h Handle[T]) Use() (*T, bool) {
	e := h.entry()
	if e == nil || e.destroyed() {
		return nil, false
	}
	return &e.value, true
}

// Copy returns another reference to the same value, incrementing the count
// of a Counted value. Copying an invalid or destroyed handle yields the zero
// Handle.
func (h Handle[T]) Copy() Handle[T] {
	e := h.entry()
	if e == nil || e.destroyed() {
		return Handle[T]{}
	}
	if e.mode == Counted {
		e.refs++
	}
	return h
}

// RefCount returns the current reference count, or 0 for an unknown handle.
// Always values report 1.
func (h Handle[T]) RefCount() int {
	if e := h.entry(); e != nil {
		return int(e.refs)
	}
	return 0
}

// Mode returns the handle's reference mode.
func (h Handle[T]) Mode() (RefMode, bool) {
	if e := h.entry(); e != nil {
		return e.mode, true
	}
	return 0, false
}

// Drop releases this reference and clears h. When a Counted value loses its
// last reference the registry's destructor runs on it. Dropping a value whose
// count is already zero is an assertion failure marked with
// ErrRefcountUnderflow.
func (h *Handle[T]) Drop() error {
	e := h.entry()
	if e == nil {
		return errors.Wrapf(ErrInvalidHandle, "handle: drop id %d", h.ID)
	}
	reg := h.reg
	id := h.ID

	if e.mode == Always {
		h.ID = 0
		return nil
	}
	if e.refs <= 0 {
		reg.log.Warn("drop of destroyed value", zap.Uint64("id", id))
		return errors.Mark(
			errors.AssertionFailedf("handle: id %d dropped with refcount %d", id, e.refs),
			ErrRefcountUnderflow)
	}

	e.refs--
	h.ID = 0
	if e.refs == 0 {
		reg.log.Debug("destroying value", zap.Uint64("id", id))
		if reg.destroy != nil {
			reg.destroy(&e.value)
		}
	}
	return nil
}
