package strtable

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/memkit/internal/murmur"
	"github.com/joshuapare/memkit/mem/alloc"
)

// PrefixSize is the number of key bytes stored inline in a bin.
const PrefixSize = 43

// DefaultCapacity is used when New is given a capacity <= 0.
const DefaultCapacity = 64

// bin holds one key. next is index+1 of the following bin in the chain.
type bin struct {
	next   uint32
	keyLen uint32
	used   bool
	prefix [PrefixSize]byte
}

const binSize = int(unsafe.Sizeof(bin{}))

// Stats reports table occupancy.
type Stats struct {
	Used          int     `json:"used"`
	Capacity      int     `json:"capacity"`
	Active        int     `json:"active"`
	Inline        int     `json:"inline"`         // live keys stored entirely in their bin
	Overflow      int     `json:"overflow"`       // live keys with an overflow buffer
	OverflowBytes int     `json:"overflow_bytes"` // bytes held in overflow buffers
	Links         int     `json:"links"`
	MaxChain      int     `json:"max_chain"`
	LoadFactor    float64 `json:"load_factor"`
}

// Table maps string keys to values of type V.
//
// Bins and values come from the table's allocator. A V that holds pointers
// therefore requires a Go heap allocator.
type Table[V any] struct {
	bins     []bin
	values   []V
	overflow [][]byte // key bytes past PrefixSize, per bin
	active   int
	used     int
	alloc    alloc.Allocator
	opts     options
}

// New allocates a table with capacity bins from a (Heap when nil).
func New[V any](a alloc.Allocator, capacity int, opts ...Option) (*Table[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity >= math.MaxUint32 {
		return nil, errors.AssertionFailedf("strtable: capacity %d exceeds link range", capacity)
	}
	t := &Table[V]{alloc: alloc.Or(a)}
	for _, opt := range opts {
		opt(&t.opts)
	}

	bins, err := alloc.Make[bin](t.alloc, capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "strtable: allocate %d bins", capacity)
	}
	values, err := alloc.Make[V](t.alloc, capacity)
	if err != nil {
		_ = alloc.Release(t.alloc, bins)
		return nil, errors.Wrapf(err, "strtable: allocate %d values", capacity)
	}
	t.bins = bins
	t.values = values
	t.overflow = make([][]byte, capacity)
	t.active = activeCapacity(capacity)
	return t, nil
}

// activeCapacity leaves about 14% of the bins for collision chains.
func activeCapacity(total int) int {
	return max(total-total*14/100, 1)
}

// Len returns the number of live keys.
func (t *Table[V]) Len() int { return t.used }

// Cap returns the total bin count.
func (t *Table[V]) Cap() int { return len(t.bins) }

func (t *Table[V]) normalize(key string) string {
	if t.opts.normalize == nil {
		return key
	}
	return t.opts.normalize(key)
}

func (t *Table[V]) bucket(key string) int {
	return int(murmur.String(key) % uint32(t.active))
}

// equal compares key with the key held in bin i.
func (t *Table[V]) equal(i int, key string) bool {
	b := &t.bins[i]
	if int(b.keyLen) != len(key) {
		return false
	}
	n := min(len(key), PrefixSize)
	if string(b.prefix[:n]) != key[:n] {
		return false
	}
	return len(key) <= PrefixSize || string(t.overflow[i]) == key[PrefixSize:]
}

// walk scans the chain for key. It returns the matching bin, the first free
// bin met on the way and the chain's last bin; missing results are -1.
func (t *Table[V]) walk(key string) (match, free, tail int) {
	free = -1
	for i := t.bucket(key); ; {
		b := &t.bins[i]
		if b.used {
			if t.equal(i, key) {
				return i, free, i
			}
		} else if free < 0 {
			free = i
		}
		if b.next == 0 {
			return -1, free, i
		}
		i = int(b.next - 1)
	}
}

// Set stores v under key, replacing any existing value.
func (t *Table[V]) Set(key string, v V) error {
	if t.bins == nil {
		return errors.AssertionFailedf("strtable: use after Free")
	}
	key = t.normalize(key)
	if uint64(len(key)) > math.MaxUint32 {
		return errors.AssertionFailedf("strtable: key of %d bytes too long", len(key))
	}

	match, free, tail := t.walk(key)
	if match >= 0 {
		t.values[match] = v
		return nil
	}

	at, from, ok := t.claim(free, tail)
	if !ok {
		if t.used == len(t.bins) {
			return errors.Wrapf(ErrFull, "strtable: %d of %d bins used", t.used, len(t.bins))
		}
		// Every free bin leads back into key's chain; relink in place.
		if err := t.relink(); err != nil {
			return err
		}
		_, free, tail = t.walk(key)
		if at, from, ok = t.claim(free, tail); !ok {
			return errors.AssertionFailedf("strtable: no free bin in %d bins", len(t.bins))
		}
	}

	var extra []byte
	if len(key) > PrefixSize {
		var err error
		if extra, err = t.alloc.Reallocate(nil, len(key)-PrefixSize); err != nil {
			return errors.Wrapf(err, "strtable: overflow for %d-byte key", len(key))
		}
		copy(extra, key[PrefixSize:])
	}

	if from >= 0 {
		t.bins[from].next = uint32(at + 1)
	}
	b := &t.bins[at]
	b.keyLen = uint32(len(key))
	b.used = true
	copy(b.prefix[:], key)
	t.overflow[at] = extra
	t.values[at] = v
	t.used++
	return nil
}

// claim picks the bin for a missing key given the results of walk. It
// returns the bin and the chain tail that must link to it, or -1 when the
// bin already sits on the chain. The tail scan runs from the last bin inward
// and skips dead bins whose links lead back to tail.
func (t *Table[V]) claim(free, tail int) (at, from int, ok bool) {
	if free >= 0 {
		return free, -1, true
	}
	for i := len(t.bins) - 1; i >= 0; i-- {
		if !t.bins[i].used && !t.reaches(i, tail) {
			return i, tail, true
		}
	}
	return -1, -1, false
}

// reaches reports whether the chain starting at bin from passes through to.
func (t *Table[V]) reaches(from, to int) bool {
	for i := from; ; {
		if i == to {
			return true
		}
		next := t.bins[i].next
		if next == 0 {
			return false
		}
		i = int(next - 1)
	}
}

// relink moves every live entry into fresh bins of the same capacity,
// dropping the links left behind by deletes. Overflow buffers move with their
// keys. On failure the table is unchanged.
func (t *Table[V]) relink() error {
	n := len(t.bins)
	bins, err := alloc.Make[bin](t.alloc, n)
	if err != nil {
		return errors.Wrapf(err, "strtable: relink %d bins", n)
	}
	values, err := alloc.Make[V](t.alloc, n)
	if err != nil {
		_ = alloc.Release(t.alloc, bins)
		return errors.Wrapf(err, "strtable: relink %d values", n)
	}
	next := &Table[V]{
		bins:     bins,
		values:   values,
		overflow: make([][]byte, n),
		active:   t.active,
		alloc:    t.alloc,
		opts:     t.opts,
	}
	discard := func() {
		_ = alloc.Release(t.alloc, values)
		_ = alloc.Release(t.alloc, bins)
	}

	for i := range t.bins {
		b := t.bins[i]
		if !b.used {
			continue
		}
		_, free, tail := next.walk(t.keyAt(i))
		at, from, ok := next.claim(free, tail)
		if !ok {
			discard()
			return errors.AssertionFailedf("strtable: relink into %d bins overflowed", n)
		}
		if from >= 0 {
			next.bins[from].next = uint32(at + 1)
		}
		b.next = 0
		next.bins[at] = b
		next.overflow[at] = t.overflow[i]
		next.values[at] = t.values[i]
		next.used++
	}

	if err := alloc.Release(t.alloc, t.values); err != nil {
		discard()
		return errors.Wrap(err, "strtable: release old values")
	}
	if err := alloc.Release(t.alloc, t.bins); err != nil {
		// The old values are gone; keep the rebuilt table.
		t.bins, t.values, t.overflow = next.bins, next.values, next.overflow
		return errors.Wrap(err, "strtable: release old bins")
	}
	t.bins, t.values, t.overflow = next.bins, next.values, next.overflow
	return nil
}

// Get returns the value stored under key.
func (t *Table[V]) Get(key string) (V, bool) {
	var zero V
	if t.bins == nil {
		return zero, false
	}
	i, _, _ := t.walk(t.normalize(key))
	if i < 0 {
		return zero, false
	}
	return t.values[i], true
}

// Delete removes key and reports whether it was present. The overflow buffer
// of a long key goes back to the allocator; if that fails the key stays.
func (t *Table[V]) Delete(key string) (bool, error) {
	if t.bins == nil {
		return false, nil
	}
	i, _, _ := t.walk(t.normalize(key))
	if i < 0 {
		return false, nil
	}
	if extra := t.overflow[i]; extra != nil {
		if _, err := t.alloc.Reallocate(extra, 0); err != nil {
			return false, errors.Wrapf(err, "strtable: free %d overflow bytes", len(extra))
		}
		t.overflow[i] = nil
	}

	var zero V
	b := &t.bins[i]
	b.keyLen, b.used, b.prefix = 0, false, [PrefixSize]byte{}
	t.values[i] = zero
	t.used--
	return true, nil
}

// keyAt rebuilds the key stored in bin i.
func (t *Table[V]) keyAt(i int) string {
	b := &t.bins[i]
	n := min(int(b.keyLen), PrefixSize)
	return string(b.prefix[:n]) + string(t.overflow[i])
}

// Each calls fn for every live entry in bin order until fn returns false.
// Keys are reported in their normalized form.
func (t *Table[V]) Each(fn func(key string, v V) bool) {
	for i := range t.bins {
		if t.bins[i].used && !fn(t.keyAt(i), t.values[i]) {
			return
		}
	}
}

// Free releases every overflow buffer, the values and the bins. The table
// must not be used afterwards.
func (t *Table[V]) Free() error {
	var err error
	for i, extra := range t.overflow {
		if extra == nil {
			continue
		}
		if _, ferr := t.alloc.Reallocate(extra, 0); ferr != nil {
			err = errors.CombineErrors(err, ferr)
			continue
		}
		t.overflow[i] = nil
	}
	if err != nil {
		return errors.Wrap(err, "strtable: free overflow")
	}
	if err := alloc.Release(t.alloc, t.values); err != nil {
		return errors.Wrap(err, "strtable: free values")
	}
	t.values = nil
	if err := alloc.Release(t.alloc, t.bins); err != nil {
		return errors.Wrap(err, "strtable: free bins")
	}
	t.bins = nil
	t.overflow = nil
	t.used = 0
	return nil
}

// Stats walks the table and reports its shape.
func (t *Table[V]) Stats() Stats {
	st := Stats{Used: t.used, Capacity: len(t.bins), Active: t.active}
	if len(t.bins) == 0 {
		return st
	}
	st.LoadFactor = float64(t.used) / float64(len(t.bins))
	for i := range t.bins {
		b := &t.bins[i]
		if b.next != 0 {
			st.Links++
		}
		if !b.used {
			continue
		}
		if extra := t.overflow[i]; extra != nil {
			st.Overflow++
			st.OverflowBytes += len(extra)
		} else {
			st.Inline++
		}
	}
	for bkt := range t.active {
		n := 0
		for i := bkt; ; i = int(t.bins[i].next - 1) {
			n++
			if t.bins[i].next == 0 || n > len(t.bins) {
				break
			}
		}
		st.MaxChain = max(st.MaxChain, n)
	}
	return st
}
