//go:build !linux && !darwin && !freebsd

package alloc

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Pages falls back to heap-backed page-rounded blocks where anonymous
// mappings are unavailable. It keeps every live block referenced so the
// contract matches the mmap version.
type Pages struct {
	mu   sync.Mutex
	maps map[uintptr][]byte
}

// NewPages returns a page allocator.
func NewPages() *Pages {
	return &Pages{maps: make(map[uintptr][]byte)}
}

const fallbackPageSize = 4096

// Reallocate implements Allocator.
func (p *Pages) Reallocate(b []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, negativeSize(size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(b) > 0 {
		if _, ok := p.maps[addrOf(b)]; !ok {
			return nil, errors.Wrapf(ErrUnknownBlock, "alloc: %d-byte block at %#x is not a page block", len(b), addrOf(b))
		}
	}
	if size == 0 {
		if len(b) > 0 {
			delete(p.maps, addrOf(b))
		}
		return nil, nil
	}

	m := make([]byte, roundPage(size))
	nb := m[:size]
	copy(nb, b)
	if len(b) > 0 {
		delete(p.maps, addrOf(b))
	}
	p.maps[addrOf(m)] = m
	return nb, nil
}

// Mapped returns the number of bytes currently held.
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
	return (size + fallbackPageSize - 1) &^ (fallbackPageSize - 1)
}

// Compile-time interface check
var _ Allocator = (*Pages)(nil)
