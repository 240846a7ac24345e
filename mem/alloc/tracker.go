package alloc

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// trackerDegree is the btree node degree for the live-block index.
const trackerDegree = 16

// block is one live allocation, keyed by base address. buf keeps the
// allocation reachable for as long as it is tracked.
type block struct {
	addr uintptr
	buf  []byte
}

func blockLess(a, b block) bool { return a.addr < b.addr }

// Stats reports Tracker counters.
type Stats struct {
	Live       int `json:"live"`        // bytes currently allocated
	Peak       int `json:"peak"`        // high-water mark of Live
	Blocks     int `json:"blocks"`      // live allocation count
	Allocs     int `json:"allocs"`      // successful allocations and resizes
	Frees      int `json:"frees"`       // blocks released, including the old side of a resize
	FreedBytes int `json:"freed_bytes"` // total bytes released
}

// Tracker wraps another Allocator and records every block it hands out.
//
// It rejects releases of blocks it does not know (double free, foreign
// buffer) and of blocks whose length changed, and it can cap the number of
// live bytes to simulate exhaustion. Tracker is intended for tests and debug
// builds; it is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	next   Allocator
	limit  int
	blocks *btree.BTreeG[block]
	stats  Stats
}

// NewTracker wraps next (Heap when nil). limit caps live bytes; 0 disables the cap.
func NewTracker(next Allocator, limit int) *Tracker {
	return &Tracker{
		next:   Or(next),
		limit:  limit,
		blocks: btree.NewG(trackerDegree, blockLess),
	}
}

// Reallocate implements Allocator.
func (t *Tracker) Reallocate(b []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, negativeSize(size)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var old block
	hasOld := len(b) > 0
	if hasOld {
		var err error
		if old, err = t.lookup(b); err != nil {
			return nil, err
		}
	}

	if size == 0 {
		if !hasOld {
			return nil, nil
		}
		if _, err := t.next.Reallocate(b, 0); err != nil {
			return nil, err
		}
		t.blocks.Delete(old)
		t.release(len(b))
		return nil, nil
	}

	if t.limit > 0 && t.stats.Live-len(b)+size > t.limit {
		return nil, errors.Wrapf(ErrExhausted, "alloc: tracker budget %d bytes, %d live, %d requested",
			t.limit, t.stats.Live, size)
	}

	nb, err := t.next.Reallocate(b, size)
	if err != nil {
		return nil, err
	}
	if hasOld {
		t.blocks.Delete(old)
		t.release(len(b))
	}
	t.blocks.ReplaceOrInsert(block{addr: addrOf(nb), buf: nb})
	t.stats.Allocs++
	t.stats.Live += size
	t.stats.Blocks++
	if t.stats.Live > t.stats.Peak {
		t.stats.Peak = t.stats.Live
	}
	return nb, nil
}

// lookup finds the live block starting at b and checks its length.
func (t *Tracker) lookup(b []byte) (block, error) {
	blk, ok := t.blocks.Get(block{addr: addrOf(b)})
	if !ok {
		return block{}, errors.Wrapf(ErrUnknownBlock, "alloc: %d-byte block at %#x", len(b), addrOf(b))
	}
	if len(blk.buf) != len(b) {
		return block{}, errors.Wrapf(ErrSizeMismatch, "alloc: block at %#x allocated with %d bytes, released with %d",
			blk.addr, len(blk.buf), len(b))
	}
	return blk, nil
}

func (t *Tracker) release(n int) {
	t.stats.Frees++
	t.stats.FreedBytes += n
	t.stats.Live -= n
	t.stats.Blocks--
}

// Stats returns a snapshot of the counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Check verifies that no two live blocks overlap.
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	var prev block
	first := true
	t.blocks.Ascend(func(cur block) bool {
		if !first && prev.addr+uintptr(len(prev.buf)) > cur.addr {
			err = errors.AssertionFailedf("alloc: block at %#x (%d bytes) overlaps block at %#x",
				prev.addr, len(prev.buf), cur.addr)
			return false
		}
		prev, first = cur, false
		return true
	})
	return err
}

func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// Compile-time interface check
var _ Allocator = (*Tracker)(nil)
