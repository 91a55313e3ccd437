package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMT19937_SeedOne(t *testing.T) {
	want := []uint32{
		1791095845, 4282876139, 3093770124, 4005303368, 491263,
		550290313, 1298508491, 4290846341, 630311759, 1013994432,
	}
	r := New(1)
	for i, w := range want {
		assert.Equal(t, w, r.Uint32(), "draw %d", i)
	}
}

func TestMT19937_TenThousandthDraw(t *testing.T) {
	r := New(DefaultSeed)
	var v uint32
	for i := 0; i < 10000; i++ {
		v = r.Uint32()
	}
	assert.Equal(t, uint32(4123659995), v)
}

func TestMT19937_SeedOneTenThousandDraws(t *testing.T) {
	r := New(1)
	var sum uint64
	var v uint32
	for range 10000 {
		v = r.Uint32()
		sum += uint64(v)
	}
	assert.Equal(t, uint32(1237896635), v)
	assert.Equal(t, uint64(21499309085260), sum)
}

func TestMT19937_ZeroValueUsesDefaultSeed(t *testing.T) {
	var zero MT19937
	r := New(DefaultSeed)
	for i := 0; i < 1000; i++ {
		require.Equal(t, r.Uint32(), zero.Uint32())
	}
}

func TestMT19937_SeedSlice(t *testing.T) {
	r := &MT19937{}
	r.SeedSlice([]uint32{0x123, 0x234, 0x345, 0x456})
	want := []uint32{1067595299, 955945823, 477289528, 4107218783, 4228976476}
	for i, w := range want {
		assert.Equal(t, w, r.Uint32(), "draw %d", i)
	}
}

func TestMT19937_Reproducible(t *testing.T) {
	a := New(20260101)
	b := New(20260101)
	for i := 0; i < 10000; i++ {
		require.Equal(t, a.Uint32(), b.Uint32())
	}

	a.Seed(7)
	b.Seed(7)
	assert.Equal(t, a.Float64(), b.Float64())
}

func TestMT19937_Float64Range(t *testing.T) {
	r := New(42)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.LessOrEqual(t, f, 1.0)
	}
}

func TestMT19937_Intn(t *testing.T) {
	r := New(3)
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		v := r.Intn(7)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 7)
		seen[v] = true
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, 0, r.Intn(0))
}
