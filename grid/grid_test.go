package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T) Grid {
	t.Helper()
	g, err := New([3]float64{-10, -5, 0}, [3]float64{1, 0.5, 2}, [3]int{4, 3, 2})
	require.NoError(t, err)
	return g
}

func TestGrid_IndexNodeRoundTrip(t *testing.T) {
	g := testGrid(t)
	assert.Equal(t, 24, g.XVars())

	for i := 0; i < g.XVars(); i++ {
		n, err := g.Node(i)
		require.NoError(t, err)
		back, err := g.Index(n)
		require.NoError(t, err)
		assert.Equal(t, i, back)
	}

	idx, err := g.Index(Node{1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, (1*3+2)*4+1, idx)
}

func TestGrid_Bounds(t *testing.T) {
	g := testGrid(t)
	_, err := g.Index(Node{4, 0, 0})
	assert.ErrorIs(t, err, ErrOutOfGrid)
	_, err = g.Node(-1)
	assert.ErrorIs(t, err, ErrOutOfGrid)
	_, err = g.Node(24)
	assert.ErrorIs(t, err, ErrOutOfGrid)
	_, err = g.Nearest([3]float64{100, 0, 0})
	assert.ErrorIs(t, err, ErrOutOfGrid)
}

func TestGrid_Coordinates(t *testing.T) {
	g := testGrid(t)
	assert.Equal(t, [3]float64{-7, -4, 2}, g.End())
	assert.Equal(t, [3]float64{-9, -4, 2}, g.Coord(Node{1, 2, 1}))

	n, err := g.Nearest([3]float64{-8.9, -4.1, 1.2})
	require.NoError(t, err)
	assert.Equal(t, Node{1, 2, 1}, n)
}

func TestGrid_Validate(t *testing.T) {
	_, err := New([3]float64{}, [3]float64{1, 1, 0}, [3]int{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = New([3]float64{}, [3]float64{1, 1, 1}, [3]int{1, 0, 1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestGrid_Match(t *testing.T) {
	g := testGrid(t)

	near := g
	near.Origin[0] += 0.00004
	near.Step[1] += 0.00001
	assert.True(t, g.Match(near))

	for a := 0; a < 3; a++ {
		off := g
		off.Nodes[a]++
		assert.False(t, g.Match(off), "axis %d", a)
	}

	shifted := g
	shifted.Origin[2] += 0.01
	assert.False(t, g.Match(shifted))
}
