package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	v, err := IntToUint32(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)

	_, err = IntToUint32(-1)
	assert.Error(t, err)

	if math.MaxInt > math.MaxUint32 {
		_, err = IntToUint32(math.MaxInt)
		assert.Error(t, err)
	}
}

func TestUint64ToInt(t *testing.T) {
	v, err := Uint64ToInt(7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.Error(t, err)
}

func TestPageOffset(t *testing.T) {
	off, err := PageOffset(3, 4096)
	require.NoError(t, err)
	assert.Equal(t, int64(12288), off)

	off, err = PageOffset(1<<20, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<40, off)

	_, err = PageOffset(-1, 4096)
	assert.Error(t, err)
	_, err = PageOffset(math.MaxInt, 4096)
	assert.Error(t, err)
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, 4096, RoundUp(1, 4096))
	assert.Equal(t, 4096, RoundUp(4096, 4096))
	assert.Equal(t, 8192, RoundUp(4097, 4096))
	assert.Equal(t, 0, RoundUp(0, 4096))
}
