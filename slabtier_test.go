package duotier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTierSpecs() []slabClassSpec {
	return []slabClassSpec{
		{unitSize: 16, unitCount: 40},
		{unitSize: 32, unitCount: 20},
		{unitSize: 64, unitCount: 5},
	}
}

func TestInitSlabTier_LaysOutAscending(t *testing.T) {
	buf := make([]byte, 16384)
	r, err := newRegion(buf)
	require.NoError(t, err)

	tier := initSlabTier(&r, 0, 8192, defaultTierSpecs())

	require.Len(t, tier.classes, 3)
	assert.Equal(t, 16, tier.classes[0].unitSize)
	assert.Equal(t, 32, tier.classes[1].unitSize)
	assert.Equal(t, 64, tier.classes[2].unitSize)
	assert.Greater(t, tier.end, tier.base)
}

func TestSlabTier_SelectClassPicksSmallestFit(t *testing.T) {
	buf := make([]byte, 16384)
	r, err := newRegion(buf)
	require.NoError(t, err)
	tier := initSlabTier(&r, 0, 8192, defaultTierSpecs())

	assert.Equal(t, 0, tier.selectClass(10))
	assert.Equal(t, 1, tier.selectClass(17))
	assert.Equal(t, 2, tier.selectClass(33))
	assert.Equal(t, -1, tier.selectClass(65))
}

func TestSlabTier_AllocFree(t *testing.T) {
	buf := make([]byte, 16384)
	r, err := newRegion(buf)
	require.NoError(t, err)
	tier := initSlabTier(&r, 0, 8192, defaultTierSpecs())

	off, ok := tier.alloc(10)
	require.True(t, ok)
	assert.True(t, tier.owns(off))

	assert.True(t, tier.free(off))
	assert.False(t, tier.free(off+1_000_000), "out-of-range offset should not be freed")
}

func TestInitSlabTier_TruncatesOverThirtyTwoSpecs(t *testing.T) {
	buf := make([]byte, 1<<20)
	r, err := newRegion(buf)
	require.NoError(t, err)

	specs := make([]slabClassSpec, 40)
	for i := range specs {
		specs[i] = slabClassSpec{unitSize: 8 * (i + 1), unitCount: 1}
	}
	tier := initSlabTier(&r, 0, 1<<20, specs)

	assert.LessOrEqual(t, len(tier.classes), numSlabClasses)
}
