package duotier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegion_RejectsTooSmallBuffer(t *testing.T) {
	_, err := newRegion(make([]byte, 4))
	assert.ErrorIs(t, err, ErrRegionTooSmall)
}

func TestRegion_OffsetOfRoundTrip(t *testing.T) {
	r, err := newRegion(make([]byte, 256))
	require.NoError(t, err)

	p := r.Bytes(40, 16)
	off, ok := r.offsetOf(p)
	assert.True(t, ok)
	assert.Equal(t, 40, off)
}

func TestRegion_OffsetOfRejectsForeignSlice(t *testing.T) {
	r, err := newRegion(make([]byte, 256))
	require.NoError(t, err)

	foreign := make([]byte, 16)
	_, ok := r.offsetOf(foreign)
	assert.False(t, ok)
}

func TestRegion_OffsetOfRejectsOutOfBounds(t *testing.T) {
	backing := make([]byte, 512)
	r, err := newRegion(backing[:256])
	require.NoError(t, err)

	// A slice ending exactly at the region's end is still in bounds.
	p := r.Bytes(250, 6)
	off, ok := r.offsetOf(p)
	assert.True(t, ok)
	assert.Equal(t, 250, off)

	// One byte past the region's end should fail, even though the backing
	// array has room for it.
	_, ok = r.offsetOf(backing[250:257])
	assert.False(t, ok)
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, 8, roundUp(1, 8))
	assert.Equal(t, 8, roundUp(8, 8))
	assert.Equal(t, 16, roundUp(9, 8))
	assert.Equal(t, 0, roundUp(0, 8))
}
