package duotier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapMeta_SetGet(t *testing.T) {
	b := bitmapMeta{bytes: make([]byte, bitmapMetaSize(20))}

	assert.False(t, b.get(5))
	b.set(5, true)
	assert.True(t, b.get(5))
	b.set(5, false)
	assert.False(t, b.get(5))
}

func TestBitmapMeta_IndependentBitsAcrossBoundary(t *testing.T) {
	b := bitmapMeta{bytes: make([]byte, bitmapMetaSize(20))}

	b.set(7, true)
	b.set(8, true)

	assert.True(t, b.get(7))
	assert.True(t, b.get(8))
	assert.False(t, b.get(9))

	b.set(7, false)
	assert.False(t, b.get(7))
	assert.True(t, b.get(8))
}

func TestBitmapMeta_Clear(t *testing.T) {
	b := bitmapMeta{bytes: make([]byte, bitmapMetaSize(16))}
	for i := 0; i < 16; i++ {
		b.set(i, true)
	}
	b.clear()
	for i := 0; i < 16; i++ {
		assert.False(t, b.get(i))
	}
}

func TestBitmapMetaSize(t *testing.T) {
	assert.Equal(t, 1, bitmapMetaSize(1))
	assert.Equal(t, 1, bitmapMetaSize(8))
	assert.Equal(t, 2, bitmapMetaSize(9))
	assert.Equal(t, 50, bitmapMetaSize(400))
}
