package arena

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem/alloc"
)

// DefaultAlign is the alignment used when callers pass 0, and by Reallocate.
const DefaultAlign = 8

// Stats reports arena usage.
type Stats struct {
	Capacity  int `json:"capacity"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	Peak      int `json:"peak"` // high-water mark of Used across resets
}

// Arena is a single-owner bump allocator over a fixed budget.
//
// Invariant: 0 <= cursor <= len(buf). Every allocation advances the cursor by
// padding + size, where padding aligns the absolute address.
type Arena struct {
	buf     []byte
	base    uintptr
	cursor  int
	peak    int
	backing alloc.Allocator
}

// New reserves budget bytes from backing (Heap when nil). Allocator failure
// is returned as-is, wrapped with the requested budget.
func New(budget int, backing alloc.Allocator) (*Arena, error) {
	b, backing, err := reserve(budget, backing)
	if err != nil {
		return nil, err
	}
	return &Arena{
		buf:     b,
		base:    uintptr(unsafe.Pointer(unsafe.SliceData(b))),
		backing: backing,
	}, nil
}

// Alloc returns size zeroed bytes aligned to align. It fails with
// alloc.ErrExhausted when padding + size exceeds the remaining budget; the
// cursor does not move on failure.
func (a *Arena) Alloc(size, align int) ([]byte, error) {
	if a.buf == nil {
		return nil, errors.AssertionFailedf("arena: use after Free")
	}
	align, err := checkRequest(size, align)
	if err != nil {
		return nil, err
	}

	start := a.cursor + int(buf.AlignPad(a.base+uintptr(a.cursor), uintptr(align)))
	end, ok := buf.AddOverflowSafe(start, size)
	if !ok || end > len(a.buf) {
		return nil, errors.Wrapf(alloc.ErrExhausted, "arena: %d bytes (align %d) with %d of %d remaining",
			size, align, len(a.buf)-a.cursor, len(a.buf))
	}

	region := a.buf[start:end:end]
	clear(region)
	a.cursor = end
	if end > a.peak {
		a.peak = end
	}
	return region, nil
}

// Reset rewinds the cursor to the start of the buffer. Memory is not cleared
// here; Alloc zeroes each region as it hands it out.
func (a *Arena) Reset() {
	a.cursor = 0
}

// Free returns the buffer to the backing allocator. The arena is unusable
// afterwards.
func (a *Arena) Free() error {
	if a.buf == nil {
		return nil
	}
	if _, err := a.backing.Reallocate(a.buf, 0); err != nil {
		return errors.Wrap(err, "arena: free")
	}
	a.buf = nil
	a.cursor = 0
	return nil
}

// Reallocate implements alloc.Allocator. A release is a no-op; anything else
// is a fresh DefaultAlign allocation plus a copy of the old bytes.
func (a *Arena) Reallocate(b []byte, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	nb, err := a.Alloc(size, DefaultAlign)
	if err != nil {
		return nil, err
	}
	copy(nb, b)
	return nb, nil
}

// Stats returns current usage.
func (a *Arena) Stats() Stats {
	return Stats{
		Capacity:  len(a.buf),
		Used:      a.cursor,
		Remaining: len(a.buf) - a.cursor,
		Peak:      a.peak,
	}
}

// reserve obtains the arena buffer from backing.
func reserve(budget int, backing alloc.Allocator) ([]byte, alloc.Allocator, error) {
	if budget <= 0 {
		return nil, nil, errors.AssertionFailedf("arena: budget must be positive, got %d", budget)
	}
	backing = alloc.Or(backing)
	b, err := backing.Reallocate(nil, budget)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "arena: reserve %d bytes", budget)
	}
	return b, backing, nil
}

// checkRequest validates size and align and resolves the default alignment.
func checkRequest(size, align int) (int, error) {
	if size < 0 {
		return 0, errors.AssertionFailedf("arena: negative size %d", size)
	}
	if align == 0 {
		align = DefaultAlign
	}
	if !buf.IsPow2(align) {
		return 0, errors.AssertionFailedf("arena: alignment %d is not a power of two", align)
	}
	return align, nil
}

// Compile-time interface check
var _ alloc.Allocator = (*Arena)(nil)
