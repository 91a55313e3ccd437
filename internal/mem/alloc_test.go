package mem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	for _, size := range []int{1, 10, 63, 64, 65, 100, 4096} {
		buf := Bytes(size)
		require.Len(t, buf, size)
		assert.Equal(t, size, cap(buf), "capacity is clipped to the requested size")
		assert.Zero(t, uintptr(unsafe.Pointer(&buf[0]))%CacheLine, "size %d", size)
	}

	assert.Nil(t, Bytes(0))
	assert.Nil(t, Bytes(-1))
}

func TestFloat32s(t *testing.T) {
	for _, n := range []int{1, 16, 17, 1000} {
		v := Float32s(n)
		require.Len(t, v, n)
		assert.Zero(t, uintptr(unsafe.Pointer(&v[0]))%CacheLine, "n %d", n)
		for _, x := range v {
			assert.Zero(t, x)
		}
		v[n-1] = 1.5
		assert.Equal(t, float32(1.5), v[n-1])
	}

	assert.Nil(t, Float32s(0))
}
