package inttable

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/internal/murmur"
	"github.com/joshuapare/memkit/mem/alloc"
)

// DefaultCapacity is used when New is given a capacity <= 0.
const DefaultCapacity = 64

// Flags tune table behavior.
type Flags uint8

const (
	// NoGrow disables automatic growth; Set fails with ErrFull instead.
	NoGrow Flags = 1 << iota
)

// slot is one table entry. next holds index+1 of the following slot in the
// chain, with 0 ending the chain.
type slot struct {
	key   uint64
	value uint64
	next  uint32
	used  bool
}

const slotSize = int(unsafe.Sizeof(slot{}))

// Stats reports table occupancy and chain shape.
type Stats struct {
	Used        int     `json:"used"`
	Capacity    int     `json:"capacity"`
	Active      int     `json:"active"`
	Links       int     `json:"links"`     // slots with an outgoing chain link
	MaxChain    int     `json:"max_chain"` // longest walk from any bucket
	LoadFactor  float64 `json:"load_factor"`
	BytesApprox int     `json:"bytes_approx"`
	Impl        string  `json:"impl"`
}

// Table maps uint64 keys to uint64 values.
type Table struct {
	slots  []slot
	active int
	used   int
	flags  Flags
	alloc  alloc.Allocator
}

// New allocates a table with capacity slots from a (Heap when nil).
func New(a alloc.Allocator, capacity int, flags Flags) (*Table, error) {
	t := &Table{alloc: alloc.Or(a), flags: flags}
	if err := t.init(capacity); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) init(capacity int) error {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity >= math.MaxUint32 {
		return errors.AssertionFailedf("inttable: capacity %d exceeds link range", capacity)
	}
	slots, err := alloc.Make[slot](t.alloc, capacity)
	if err != nil {
		return errors.Wrapf(err, "inttable: allocate %d slots", capacity)
	}
	t.slots = slots
	t.active = activeCapacity(capacity)
	t.used = 0
	return nil
}

// activeCapacity reserves a fifth of the table for collision chains.
func activeCapacity(total int) int {
	return max(total-total/5, 1)
}

// Len returns the number of live entries.
func (t *Table) Len() int { return t.used }

// Cap returns the total slot count.
func (t *Table) Cap() int { return len(t.slots) }

// ActiveCap returns the number of hash buckets.
func (t *Table) ActiveCap() int { return t.active }

// Flags returns the table's flags.
func (t *Table) Flags() Flags { return t.flags }

func (t *Table) bucket(key uint64) int {
	return int(murmur.Uint64(key) % uint32(t.active))
}

// Set stores value under key, replacing any existing value.
func (t *Table) Set(key, value uint64) error {
	if t.slots == nil {
		return errors.AssertionFailedf("inttable: use after Free")
	}
	if t.insert(key, value) {
		return nil
	}
	switch {
	case t.used < len(t.slots):
		// Every free slot leads back into key's chain; relink in place.
		if err := t.rehash(len(t.slots)); err != nil {
			return err
		}
	case t.flags&NoGrow != 0:
		return errors.Wrapf(ErrFull, "inttable: %d of %d slots used", t.used, len(t.slots))
	default:
		if err := t.Grow(); err != nil {
			return err
		}
	}
	if !t.insert(key, value) {
		return errors.AssertionFailedf("inttable: no free slot in %d slots", len(t.slots))
	}
	return nil
}

// insert places key without growing. It reports false when no slot is free.
func (t *Table) insert(key, value uint64) bool {
	start := t.bucket(key)
	free, tail := -1, start
	for i := start; ; {
		s := &t.slots[i]
		if s.used {
			if s.key == key {
				s.value = value
				return true
			}
		} else if free < 0 {
			free = i
		}
		tail = i
		if s.next == 0 {
			break
		}
		i = int(s.next - 1)
	}

	if free < 0 {
		// Tail scan. A dead slot may still link onward; appending it is safe
		// unless that link leads back to tail.
		for i := len(t.slots) - 1; i >= 0; i-- {
			if s := &t.slots[i]; !s.used && !t.reaches(i, tail) {
				free = i
				break
			}
		}
		if free < 0 {
			return false
		}
		t.slots[tail].next = uint32(free + 1)
	}

	s := &t.slots[free]
	s.key, s.value, s.used = key, value, true
	t.used++
	return true
}

// reaches reports whether the chain starting at slot from passes through to.
func (t *Table) reaches(from, to int) bool {
	for i := from; ; {
		if i == to {
			return true
		}
		next := t.slots[i].next
		if next == 0 {
			return false
		}
		i = int(next - 1)
	}
}

// find returns the index of key's slot, or -1.
func (t *Table) find(key uint64) int {
	for i := t.bucket(key); ; {
		s := &t.slots[i]
		if s.used && s.key == key {
			return i
		}
		if s.next == 0 {
			return -1
		}
		i = int(s.next - 1)
	}
}

// Get returns the value stored under key.
func (t *Table) Get(key uint64) (uint64, bool) {
	if t.slots == nil {
		return 0, false
	}
	if i := t.find(key); i >= 0 {
		return t.slots[i].value, true
	}
	return 0, false
}

// Delete removes key and reports whether it was present. The slot keeps its
// chain link.
func (t *Table) Delete(key uint64) bool {
	if t.slots == nil {
		return false
	}
	i := t.find(key)
	if i < 0 {
		return false
	}
	s := &t.slots[i]
	s.key, s.value, s.used = 0, 0, false
	t.used--
	return true
}

// Grow doubles the table and rehashes every live entry into fresh storage.
// On failure the table is unchanged.
func (t *Table) Grow() error {
	if t.slots == nil {
		return errors.AssertionFailedf("inttable: use after Free")
	}
	return t.rehash(2 * len(t.slots))
}

// rehash moves every live entry into capacity fresh slots, dropping the links
// left behind by deletes. On failure the table is unchanged.
func (t *Table) rehash(capacity int) error {
	next := &Table{alloc: t.alloc, flags: t.flags | NoGrow}
	if err := next.init(capacity); err != nil {
		return errors.Wrapf(err, "inttable: rehash into %d slots", capacity)
	}
	for i := range t.slots {
		if s := &t.slots[i]; s.used && !next.insert(s.key, s.value) {
			_ = next.Free()
			return errors.AssertionFailedf("inttable: rehash into %d slots overflowed", len(next.slots))
		}
	}
	if err := alloc.Release(t.alloc, t.slots); err != nil {
		_ = next.Free()
		return errors.Wrap(err, "inttable: release old slots")
	}
	t.slots, t.active, t.used = next.slots, next.active, next.used
	return nil
}

// Each calls fn for every live entry in slot order until fn returns false.
func (t *Table) Each(fn func(key, value uint64) bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.used && !fn(s.key, s.value) {
			return
		}
	}
}

// Reset removes every entry and every link, keeping the storage.
func (t *Table) Reset() {
	clear(t.slots)
	t.used = 0
}

// Free releases the slot storage. The table must not be used afterwards.
func (t *Table) Free() error {
	if err := alloc.Release(t.alloc, t.slots); err != nil {
		return errors.Wrap(err, "inttable: free")
	}
	t.slots = nil
	t.used = 0
	return nil
}

// Stats walks the table and reports its shape.
func (t *Table) Stats() Stats {
	st := Stats{
		Used:        t.used,
		Capacity:    len(t.slots),
		Active:      t.active,
		BytesApprox: len(t.slots) * slotSize,
		Impl:        "chained",
	}
	if len(t.slots) == 0 {
		return st
	}
	st.LoadFactor = float64(t.used) / float64(len(t.slots))
	for i := range t.slots {
		if t.slots[i].next != 0 {
			st.Links++
		}
	}
	for b := range t.active {
		n := 0
		for i := b; ; i = int(t.slots[i].next - 1) {
			n++
			if t.slots[i].next == 0 || n > len(t.slots) {
				break
			}
		}
		st.MaxChain = max(st.MaxChain, n)
	}
	return st
}
