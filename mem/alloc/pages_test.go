package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPages_Lifecycle tests map, resize and unmap.
func TestPages_Lifecycle(t *testing.T) {
	p := NewPages()

	b, err := p.Reallocate(nil, 100)
	require.NoError(t, err)
	require.Len(t, b, 100)
	assert.Equal(t, make([]byte, 100), b)
	assert.Positive(t, p.Mapped())

	copy(b, "pages")
	b, err = p.Reallocate(b, 3*roundPage(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("pages"), b[:5])

	_, err = p.Reallocate(b, 0)
	require.NoError(t, err)
	assert.Zero(t, p.Mapped())
}

// TestPages_ForeignBlock tests that a heap buffer cannot be released as pages.
func TestPages_ForeignBlock(t *testing.T) {
	p := NewPages()
	_, err := p.Reallocate(make([]byte, 8), 0)
	require.ErrorIs(t, err, ErrUnknownBlock)
}

// TestPages_TypedStorage tests Make/Release on page memory.
func TestPages_TypedStorage(t *testing.T) {
	p := NewPages()

	s, err := Make[uint32](p, 1000)
	require.NoError(t, err)
	for i := range s {
		s[i] = uint32(i)
	}
	s, err = Resize(p, s, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint32(999), s[999])

	require.NoError(t, Release(p, s))
	assert.Zero(t, p.Mapped())
}
