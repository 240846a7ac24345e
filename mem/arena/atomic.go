package arena

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem/alloc"
)

// AtomicArena is a bump allocator whose Alloc is safe for concurrent use.
//
// Each Alloc computes its padding from the loaded cursor and claims
// padding + size bytes with a compare-and-swap, retrying when another
// producer moved the cursor first. The cursor never passes the budget, so an
// AtomicArena fits exactly the sequences an Arena of the same budget fits.
type AtomicArena struct {
	buf     []byte
	base    uintptr
	cursor  atomic.Uint64
	peak    atomic.Uint64
	backing alloc.Allocator
}

// NewAtomic reserves budget bytes from backing (Heap when nil).
func NewAtomic(budget int, backing alloc.Allocator) (*AtomicArena, error) {
	b, backing, err := reserve(budget, backing)
	if err != nil {
		return nil, err
	}
	return &AtomicArena{
		buf:     b,
		base:    uintptr(unsafe.Pointer(unsafe.SliceData(b))),
		backing: backing,
	}, nil
}

// Alloc returns size zeroed bytes aligned to align. Safe for concurrent use.
func (a *AtomicArena) Alloc(size, align int) ([]byte, error) {
	if a.buf == nil {
		return nil, errors.AssertionFailedf("arena: use after Free")
	}
	align, err := checkRequest(size, align)
	if err != nil {
		return nil, err
	}

	limit := uint64(len(a.buf))
	var start, end uint64
	for {
		cur := a.cursor.Load()
		start = cur + uint64(buf.AlignPad(a.base+uintptr(cur), uintptr(align)))
		end = start + uint64(size)
		if end > limit {
			return nil, a.exhausted(size, align)
		}
		if a.cursor.CompareAndSwap(cur, end) {
			break
		}
	}

	region := a.buf[start : start+uint64(size) : start+uint64(size)]
	clear(region)

	for {
		p := a.peak.Load()
		if end <= p || a.peak.CompareAndSwap(p, end) {
			break
		}
	}
	return region, nil
}

func (a *AtomicArena) exhausted(size, align int) error {
	used := a.cursor.Load()
	return errors.Wrapf(alloc.ErrExhausted, "arena: %d bytes (align %d) with %d of %d remaining",
		size, align, uint64(len(a.buf))-used, len(a.buf))
}

// Reset rewinds the cursor. No Alloc may be in flight.
func (a *AtomicArena) Reset() {
	a.cursor.Store(0)
}

// Free returns the buffer to the backing allocator. No Alloc may be in flight.
func (a *AtomicArena) Free() error {
	if a.buf == nil {
		return nil
	}
	if _, err := a.backing.Reallocate(a.buf, 0); err != nil {
		return errors.Wrap(err, "arena: free")
	}
	a.buf = nil
	a.cursor.Store(0)
	return nil
}

// Reallocate implements alloc.Allocator with the same semantics as
// (*Arena).Reallocate. Safe for concurrent use.
func (a *AtomicArena) Reallocate(b []byte, size int) ([]byte, error) {
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
func (a *AtomicArena) Stats() Stats {
	used := int(a.cursor.Load())
	return Stats{
		Capacity:  len(a.buf),
		Used:      used,
		Remaining: len(a.buf) - used,
		Peak:      int(a.peak.Load()),
	}
}

// Compile-time interface check
var _ alloc.Allocator = (*AtomicArena)(nil)
