package arena

import (
	"sort"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem/alloc"
)

// TestAtomicArena_ConcurrentProducers tests lock-free allocation from many
// goroutines: exactly the reservations that fit succeed and none overlap.
func TestAtomicArena_ConcurrentProducers(t *testing.T) {
	const (
		size      = 16
		align     = 8
		fits      = 100
		workers   = 8
		perWorker = 50
	)

	a, err := NewAtomic(size*fits, nil)
	require.NoError(t, err)
	defer a.Free()

	var (
		mu      sync.Mutex
		regions []uintptr
		failed  int
		wg      sync.WaitGroup
	)
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for range perWorker {
				b, err := a.Alloc(size, align)
				mu.Lock()
				if err != nil {
					if errors.Is(err, alloc.ErrExhausted) {
						failed++
					}
				} else {
					for i := range b {
						b[i] = byte(w)
					}
					regions = append(regions, addr(b))
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, regions, fits)
	assert.Equal(t, workers*perWorker-fits, failed)

	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	for i := 1; i < len(regions); i++ {
		assert.GreaterOrEqual(t, regions[i], regions[i-1]+size, "regions %d and %d overlap", i-1, i)
		assert.Zero(t, regions[i]%align)
	}

	st := a.Stats()
	assert.Equal(t, st.Capacity, st.Used, "the budget is used without waste")
	assert.Zero(t, st.Remaining)
}

// TestAtomicArena_MatchesArena tests that a single producer fits exactly the
// sequence a plain Arena of the same budget fits, with the same cursor after
// each step.
func TestAtomicArena_MatchesArena(t *testing.T) {
	t.Run("repeated aligned words", func(t *testing.T) {
		plain, err := New(64, nil)
		require.NoError(t, err)
		atom, err := NewAtomic(64, nil)
		require.NoError(t, err)

		var nPlain, nAtom int
		for range 16 {
			if _, err := plain.Alloc(8, 8); err == nil {
				nPlain++
			}
			if _, err := atom.Alloc(8, 8); err == nil {
				nAtom++
			}
		}
		assert.Equal(t, 8, nPlain)
		assert.Equal(t, nPlain, nAtom)
		assert.Equal(t, plain.Stats(), atom.Stats())
	})

	t.Run("exact fit", func(t *testing.T) {
		atom, err := NewAtomic(16, nil)
		require.NoError(t, err)
		b, err := atom.Alloc(16, 8)
		require.NoError(t, err)
		assert.Len(t, b, 16)
		assert.Zero(t, atom.Stats().Remaining)
	})

	t.Run("mixed sizes", func(t *testing.T) {
		reqs := []struct{ size, align int }{
			{3, 1}, {8, 8}, {5, 4}, {16, 8}, {1, 1}, {2, 2}, {7, 8}, {24, 8}, {4, 4}, {9, 1},
		}
		plain, err := New(80, nil)
		require.NoError(t, err)
		atom, err := NewAtomic(80, nil)
		require.NoError(t, err)

		for i, r := range reqs {
			_, errPlain := plain.Alloc(r.size, r.align)
			_, errAtom := atom.Alloc(r.size, r.align)
			assert.Equal(t, errPlain == nil, errAtom == nil, "request %d", i)
			assert.Equal(t, plain.Stats().Used, atom.Stats().Used, "request %d", i)
		}
	})
}

// TestAtomicArena_ResetAndOversized tests reset after exhaustion and requests
// that can never fit.
func TestAtomicArena_ResetAndOversized(t *testing.T) {
	a, err := NewAtomic(64, nil)
	require.NoError(t, err)

	_, err = a.Alloc(128, 1)
	require.ErrorIs(t, err, alloc.ErrExhausted)
	assert.Zero(t, a.Stats().Used, "impossible request must not move the cursor")

	for range 10 {
		_, _ = a.Alloc(16, 1)
	}
	_, err = a.Alloc(16, 1)
	require.ErrorIs(t, err, alloc.ErrExhausted)

	a.Reset()
	b, err := a.Alloc(16, 1)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), b)
	assert.Equal(t, 64, a.Stats().Peak)
}

// TestAtomicArena_AsAllocator tests the adapter and Free.
func TestAtomicArena_AsAllocator(t *testing.T) {
	tr := alloc.NewTracker(nil, 0)
	a, err := NewAtomic(256, tr)
	require.NoError(t, err)

	b, err := a.Reallocate(nil, 4)
	require.NoError(t, err)
	copy(b, "go!!")
	b, err = a.Reallocate(b, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("go!!"), b[:4])

	require.NoError(t, a.Free())
	assert.Zero(t, tr.Stats().Live)

	_, err = a.Alloc(1, 1)
	assert.True(t, errors.HasAssertionFailure(err))
}
