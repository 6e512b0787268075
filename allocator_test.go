package duotier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestOptions() Options {
	return Options{
		SlabClasses: []SlabClassSpec{
			{UnitSize: 16, UnitCount: 8},
			{UnitSize: 64, UnitCount: 4},
		},
		MaxSlabBytes: 2048,
		Checksum:     ChecksumSentinel,
	}
}

func TestNew_RejectsNegativeMaxSlabBytes(t *testing.T) {
	_, err := New(make([]byte, 4096), Options{MaxSlabBytes: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsMisalignedSlabUnitSize(t *testing.T) {
	_, err := New(make([]byte, 4096), Options{
		SlabClasses: []SlabClassSpec{{UnitSize: 17, UnitCount: 4}},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsTooManySlabClasses(t *testing.T) {
	specs := make([]SlabClassSpec, numSlabClasses+1)
	for i := range specs {
		specs[i] = SlabClassSpec{UnitSize: 8, UnitCount: 1}
	}
	_, err := New(make([]byte, 1<<20), Options{SlabClasses: specs})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsRegionTooSmallForChunkTier(t *testing.T) {
	_, err := New(make([]byte, 8), Options{})
	assert.ErrorIs(t, err, ErrRegionTooSmall)
}

func TestAllocator_AllocRoutesSmallRequestsToSlabTier(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	p, err := a.Alloc(16)
	require.NoError(t, err)
	require.Len(t, p, 16)

	off, ok := a.region.offsetOf(p)
	require.True(t, ok)
	assert.True(t, a.slab.owns(off))
	assert.False(t, a.chunk.Owns(off))
}

func TestAllocator_AllocFallsThroughToChunkTierWhenSlabFull(t *testing.T) {
	a, err := New(make([]byte, 4096), Options{
		SlabClasses:  []SlabClassSpec{{UnitSize: 16, UnitCount: 1}},
		MaxSlabBytes: 512,
		Checksum:     ChecksumSentinel,
	})
	require.NoError(t, err)

	_, err = a.Alloc(16)
	require.NoError(t, err)

	// The sole slab unit is taken; the next same-size request must fall
	// through to the chunk tier rather than fail.
	p, err := a.Alloc(16)
	require.NoError(t, err)

	off, ok := a.region.offsetOf(p)
	require.True(t, ok)
	assert.True(t, a.chunk.Owns(off))
}

func TestAllocator_AllocFreeRoundTrip(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	p, err := a.Alloc(100)
	require.NoError(t, err)

	require.NoError(t, a.Free(p))
}

func TestAllocator_FreeIgnoresForeignSlice(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	foreign := make([]byte, 16)
	assert.NoError(t, a.Free(foreign))
}

func TestAllocator_FreeIgnoresNilSlice(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	assert.NoError(t, a.Free(nil))
}

func TestAllocator_FreeIgnoresDoubleFree(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	p, err := a.Alloc(100)
	require.NoError(t, err)

	require.NoError(t, a.Free(p))
	// Freeing the same slice again is a no-op, not an error: the chunk's
	// used bit already reads 0, so there is nothing left to release.
	assert.NoError(t, a.Free(p))

	before := a.Stats()
	assert.NoError(t, a.Free(p))
	after := a.Stats()
	assert.Equal(t, before, after, "repeat free must not change occupancy")
}

func TestAllocator_AllocReturnsOutOfMemoryWhenExhausted(t *testing.T) {
	a, err := New(make([]byte, 128), Options{})
	require.NoError(t, err)

	_, err = a.Alloc(10000)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestAllocator_StatsReflectsOccupancy(t *testing.T) {
	a, err := New(make([]byte, 4096), defaultTestOptions())
	require.NoError(t, err)

	before := a.Stats()
	assert.Equal(t, 0, before.SlabUnitsUsed)

	p, err := a.Alloc(16)
	require.NoError(t, err)

	mid := a.Stats()
	assert.Equal(t, before.SlabUnitsUsed+1, mid.SlabUnitsUsed)
	assert.Equal(t, before.SlabUnitsFree-1, mid.SlabUnitsFree)

	require.NoError(t, a.Free(p))
	after := a.Stats()
	assert.Equal(t, before.SlabUnitsUsed, after.SlabUnitsUsed)
}

func TestAllocator_StatsTracksCorruptionRecoveries(t *testing.T) {
	a, err := New(make([]byte, 4096), Options{Checksum: ChecksumSentinel})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Stats().CorruptNodesRecovered)
}

func TestAllocator_DistinctInstancesHaveDistinctIDs(t *testing.T) {
	a1, err := New(make([]byte, 256), Options{})
	require.NoError(t, err)
	a2, err := New(make([]byte, 256), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, a1.ID(), a2.ID())
}
