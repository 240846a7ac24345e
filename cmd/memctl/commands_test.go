package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaCommand(t *testing.T) {
	tests := []struct {
		name        string
		budget      int
		sizes       []int
		rounds      int
		backing     string
		wantOffsets []int // -1 marks exhaustion
	}{
		{
			name:        "fits",
			budget:      256,
			sizes:       []int{10, 20, 30},
			rounds:      1,
			wantOffsets: []int{0, 10, 30},
		},
		{
			name:        "exhausted then replayed",
			budget:      50,
			sizes:       []int{10, 20, 30},
			rounds:      2,
			backing:     "tracker",
			wantOffsets: []int{0, 10, -1, 0, 10, -1},
		},
		{
			name:        "page backed",
			budget:      8192,
			sizes:       []int{4096, 4096},
			rounds:      1,
			backing:     "pages",
			wantOffsets: []int{0, 4096},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals()
			jsonOut = true
			if tt.backing != "" {
				backing = tt.backing
			}
			arenaBudget, arenaSizes, arenaAlign, arenaRounds = tt.budget, tt.sizes, 1, tt.rounds

			output, err := captureOutput(t, runArena)
			require.NoError(t, err)

			var rep arenaReport
			decodeJSON(t, output, &rep)
			var got []int
			for _, a := range rep.Allocations {
				if a.Exhausted {
					got = append(got, -1)
					continue
				}
				got = append(got, a.Offset)
			}
			assert.Equal(t, tt.wantOffsets, got)
			assert.Equal(t, tt.budget, rep.Stats.Capacity)
			if tt.backing == "tracker" {
				require.NotNil(t, rep.Backing)
				assert.Zero(t, rep.Backing.Live)
				assert.Equal(t, tt.budget, rep.Backing.FreedBytes)
			}
		})
	}
}

func TestArenaCommand_Text(t *testing.T) {
	resetGlobals()
	arenaBudget, arenaSizes, arenaAlign, arenaRounds = 64, []int{8, 100}, 8, 1

	output, err := captureOutput(t, runArena)
	require.NoError(t, err)
	assertContains(t, output, []string{"size      8  offset", "size    100  exhausted", "capacity 64"})
}

func TestIntTableCommand(t *testing.T) {
	tests := []struct {
		name         string
		capacity     int
		keys         int
		noGrow       bool
		deleteEvery  int
		wantInserted int
		wantFull     int
		wantDeleted  int
		wantCapacity int
	}{
		{"grows on the eleventh key", 10, 11, false, 0, 11, 0, 0, 20},
		{"fixed capacity", 10, 11, true, 0, 10, 1, 0, 10},
		{"deletes", 16, 100, false, 3, 100, 0, 33, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals()
			jsonOut = true
			backing = "tracker"
			intCapacity, intKeys, intNoGrow, intDeleteEvery = tt.capacity, tt.keys, tt.noGrow, tt.deleteEvery

			output, err := captureOutput(t, runIntTable)
			require.NoError(t, err)

			var rep intTableReport
			decodeJSON(t, output, &rep)
			assert.Equal(t, tt.wantInserted, rep.Inserted)
			assert.Equal(t, tt.wantFull, rep.Full)
			assert.Equal(t, tt.wantDeleted, rep.Deleted)
			assert.Equal(t, tt.wantCapacity, rep.Stats.Capacity)
			assert.Equal(t, tt.wantInserted-tt.wantDeleted, rep.Stats.Used)
			require.NotNil(t, rep.Backing)
			assert.Zero(t, rep.Backing.Live)
		})
	}
}

func TestStrTableCommand(t *testing.T) {
	resetGlobals()
	jsonOut = true
	strCapacity, strFoldCase, strNFC = 16, true, false
	long := "textures/environment/skybox/cubemap_night_sky_high_res.ktx2"

	output, err := captureOutput(t, func() error {
		return runStrTable([]string{"Mesh", "MESH", "mesh", long})
	})
	require.NoError(t, err)

	var rep strTableReport
	decodeJSON(t, output, &rep)
	assert.ElementsMatch(t, []strEntry{{Key: "mesh", Value: 2}, {Key: long, Value: 3}}, rep.Entries)
	assert.Equal(t, 1, rep.Stats.Inline)
	assert.Equal(t, 1, rep.Stats.Overflow)
	assert.Equal(t, len(long)-43, rep.Stats.OverflowBytes)
	assert.Empty(t, rep.Full)
}

func TestStrTableCommand_Full(t *testing.T) {
	resetGlobals()
	strCapacity, strFoldCase, strNFC = 2, false, true

	output, err := captureOutput(t, func() error {
		return runStrTable([]string{"a", "b", "c"})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{`"c"`, "full", "2 keys: 2 inline, 0 overflow"})
}

func TestRegistryCommand(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		dropEvery     int
		always        bool
		wantDestroyed int
		wantLive      int
	}{
		{"drop every other", 10, 2, false, 5, 5},
		{"drop none", 10, 0, false, 0, 10},
		{"always mode", 10, 2, true, 0, 10},
		{"heavy growth", 1000, 3, false, 333, 667},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals()
			jsonOut = true
			backing = "tracker"
			regCount, regCapacity, regDropEvery, regAlways = tt.count, 2, tt.dropEvery, tt.always

			output, err := captureOutput(t, runRegistry)
			require.NoError(t, err)

			var rep registryReport
			decodeJSON(t, output, &rep)
			assert.Equal(t, tt.count, rep.Registered)
			assert.Equal(t, tt.wantDestroyed, rep.Destroyed)
			assert.Equal(t, tt.wantDestroyed, rep.Reclaimed)
			assert.Equal(t, tt.wantLive, rep.Live)
			assert.Equal(t, tt.wantLive, rep.Slots)
			require.NotNil(t, rep.Backing)
			assert.Zero(t, rep.Backing.Live)
		})
	}
}

func TestUnknownBacking(t *testing.T) {
	resetGlobals()
	backing = "mmap2"
	_, err := captureOutput(t, runArena)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backing allocator")
}

func TestQuietSuppressesOutput(t *testing.T) {
	resetGlobals()
	quiet = true
	intCapacity, intKeys, intNoGrow, intDeleteEvery = 8, 4, false, 0

	output, err := captureOutput(t, runIntTable)
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestVersionCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		resetGlobals()
		jsonOut = true

		output, err := captureOutput(t, runVersion)
		require.NoError(t, err)

		var rep versionReport
		decodeJSON(t, output, &rep)
		assert.NotEmpty(t, rep.Version)
		assert.Equal(t, commit, rep.Commit)
		assert.Contains(t, rep.Go, "go")
		assert.Contains(t, rep.Platform, "/")
		assert.Equal(t, 8, rep.Layout.ArenaAlign)
		assert.Equal(t, 43, rep.Layout.KeyPrefix)
		assert.Equal(t, 64, rep.Layout.IntTableDefault)
	})

	t.Run("text", func(t *testing.T) {
		resetGlobals()
		verbose = true

		output, err := captureOutput(t, runVersion)
		require.NoError(t, err)
		assertContains(t, output, []string{"memctl ", "commit: none", "key prefix: 43 bytes"})
	})
}
