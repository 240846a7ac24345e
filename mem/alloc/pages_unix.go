//go:build linux || darwin || freebsd

package alloc

import (
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Pages hands out anonymous private mappings. Every allocation is rounded up
// to whole pages and lives outside the Go heap, so it is never scanned or
// moved by the garbage collector. Pages is safe for concurrent use.
type Pages struct {
	mu   sync.Mutex
	maps map[uintptr][]byte // base address -> full mapping
}

// NewPages returns a page allocator.
func NewPages() *Pages {
	return &Pages{maps: make(map[uintptr][]byte)}
}

// Reallocate implements Allocator. A resize always maps fresh pages, copies,
// then unmaps the old mapping; the old mapping survives any failure.
func (p *Pages) Reallocate(b []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, negativeSize(size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var old []byte
	if len(b) > 0 {
		m, ok := p.maps[addrOf(b)]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownBlock, "alloc: %d-byte block at %#x is not a page mapping", len(b), addrOf(b))
		}
		old = m
	}

	if size == 0 {
		if old == nil {
			return nil, nil
		}
		return nil, p.unmap(old)
	}

	length := roundPage(size)
	m, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "alloc: mmap %d bytes", length), ErrExhausted)
	}
	nb := m[:size]
	copy(nb, b)

	if old != nil {
		if err := p.unmap(old); err != nil {
			_ = unix.Munmap(m)
			return nil, err
		}
	}
	p.maps[addrOf(m)] = m
	return nb, nil
}

func (p *Pages) unmap(m []byte) error {
	if err := unix.Munmap(m); err != nil {
		return errors.Wrapf(err, "alloc: munmap %d bytes", len(m))
	}
	delete(p.maps, addrOf(m))
	return nil
}

// Mapped returns the number of bytes currently mapped.
func (p *Pages) Mapped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.maps {
		n += len(m)
	}
	return n
}

func roundPage(size int) int {
	ps := unix.Getpagesize()
	return (size + ps - 1) &^ (ps - 1)
}

// Compile-time interface check
var _ Allocator = (*Pages)(nil)
