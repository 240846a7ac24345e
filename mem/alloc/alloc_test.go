package alloc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHeap_Conventions tests fresh allocation, resize and release.
func TestHeap_Conventions(t *testing.T) {
	var h Heap

	b, err := h.Reallocate(nil, 16)
	require.NoError(t, err)
	require.Len(t, b, 16)
	assert.Equal(t, make([]byte, 16), b, "fresh memory should be zeroed")

	copy(b, "abcdefgh")
	grown, err := h.Reallocate(b, 32)
	require.NoError(t, err)
	require.Len(t, grown, 32)
	assert.Equal(t, []byte("abcdefgh"), grown[:8], "prefix should survive growth")

	shrunk, err := h.Reallocate(grown, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), shrunk)

	freed, err := h.Reallocate(shrunk, 0)
	require.NoError(t, err)
	assert.Nil(t, freed)
}

// TestHeap_NegativeSize tests that a negative request is an assertion failure.
func TestHeap_NegativeSize(t *testing.T) {
	_, err := Heap{}.Reallocate(nil, -1)
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

// TestFunc_Adapter tests that a closure can serve as an Allocator.
func TestFunc_Adapter(t *testing.T) {
	calls := 0
	var a Allocator = Func(func(buf []byte, size int) ([]byte, error) {
		calls++
		return Heap{}.Reallocate(buf, size)
	})

	b, err := a.Reallocate(nil, 8)
	require.NoError(t, err)
	require.Len(t, b, 8)
	_, err = a.Reallocate(b, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

// TestOr_DefaultsToHeap tests the nil-allocator default.
func TestOr_DefaultsToHeap(t *testing.T) {
	assert.Equal(t, Heap{}, Or(nil))

	tr := NewTracker(nil, 0)
	assert.Same(t, tr, Or(tr))
}
