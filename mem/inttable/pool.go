package inttable

import (
	"sync"

	"github.com/joshuapare/memkit/mem/alloc"
)

var tablePool = sync.Pool{}

// AcquireTable returns an empty heap-backed table with at least capacity
// slots, from the pool when one is large enough.
func AcquireTable(capacity int) (*Table, error) {
	if v := tablePool.Get(); v != nil {
		t := v.(*Table)
		if t.Cap() >= max(capacity, 1) {
			t.Reset()
			t.flags = 0
			return t, nil
		}
	}
	return New(nil, capacity, 0)
}

// ReleaseTable returns a table to the pool for reuse. Only heap-backed tables
// are pooled; others are ignored and must be freed by the caller.
func ReleaseTable(t *Table) {
	if t == nil || t.slots == nil {
		return
	}
	if _, ok := t.alloc.(alloc.Heap); !ok {
		return
	}
	tablePool.Put(t)
}
