package alloc

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainSlot struct {
	key, value uint64
	next       uint32
	used       bool
}

type pointerSlot struct {
	name string
	n    int
}

// TestResize_Heap tests the Go-heap path for any element type.
func TestResize_Heap(t *testing.T) {
	s, err := Make[string](nil, 3)
	require.NoError(t, err)
	require.Len(t, s, 3)
	s[0], s[1], s[2] = "a", "b", "c"

	s, err = Resize(Heap{}, s, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, s)
	assert.Equal(t, 8, cap(s))

	s, err = Resize(Heap{}, s, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s)

	require.NoError(t, Release(Heap{}, s))
}

// TestResize_Tracked tests that pointer-free types round-trip through a
// non-heap allocator and that release returns every byte.
func TestResize_Tracked(t *testing.T) {
	tr := NewTracker(nil, 0)

	s, err := Make[plainSlot](tr, 4)
	require.NoError(t, err)
	require.Len(t, s, 4)
	for i := range s {
		assert.Equal(t, plainSlot{}, s[i], "slot %d should be zeroed", i)
		s[i] = plainSlot{key: uint64(i), value: uint64(i * 10), used: true}
	}

	s, err = Resize(tr, s, 16)
	require.NoError(t, err)
	require.Len(t, s, 4)
	assert.Equal(t, 16, cap(s))
	for i := range s {
		assert.Equal(t, uint64(i*10), s[i].value)
	}
	full := s[:cap(s)]
	assert.Equal(t, plainSlot{}, full[15], "grown tail should be zeroed")

	elem := int(reflect.TypeFor[plainSlot]().Size())
	assert.Equal(t, 16*elem, tr.Stats().Live)

	require.NoError(t, Release(tr, s))
	st := tr.Stats()
	assert.Equal(t, 0, st.Live)
	assert.Equal(t, 4*elem+16*elem, st.FreedBytes)
}

// TestResize_PointerTypeRejected tests that pointer-carrying types stay on the heap.
func TestResize_PointerTypeRejected(t *testing.T) {
	tr := NewTracker(nil, 0)

	_, err := Make[pointerSlot](tr, 4)
	require.ErrorIs(t, err, ErrPointerType)

	_, err = Make[*int](tr, 1)
	require.ErrorIs(t, err, ErrPointerType)

	assert.Equal(t, 0, tr.Stats().Allocs, "rejected request must not allocate")
}

// TestResize_FailureLeavesInput tests growth atomicity.
func TestResize_FailureLeavesInput(t *testing.T) {
	tr := NewTracker(nil, 64)

	s, err := Make[uint64](tr, 4)
	require.NoError(t, err)
	s[0], s[3] = 7, 9

	got, err := Resize(tr, s, 100)
	require.ErrorIs(t, err, ErrExhausted)
	require.Len(t, got, 4)
	assert.Equal(t, uint64(7), got[0])
	assert.Equal(t, uint64(9), got[3])
	assert.Equal(t, 32, tr.Stats().Live)
}

// TestHasPointers tests the pointer classifier.
func TestHasPointers(t *testing.T) {
	cases := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeFor[uint64](), false},
		{reflect.TypeFor[[43]byte](), false},
		{reflect.TypeFor[plainSlot](), false},
		{reflect.TypeFor[[0]*int](), false},
		{reflect.TypeFor[string](), true},
		{reflect.TypeFor[[]byte](), true},
		{reflect.TypeFor[pointerSlot](), true},
		{reflect.TypeFor[[2]pointerSlot](), true},
		{reflect.TypeFor[any](), true},
		{reflect.TypeFor[map[int]int](), true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, hasPointers(c.typ), "hasPointers(%s)", c.typ)
	}
}
