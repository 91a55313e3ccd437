package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/rng"
	"github.com/hupe1980/gridpls/storage"
)

// newPartitioner creates one single-conformer structure per y value.
func newPartitioner(t *testing.T, ys ...float32) (*Partitioner, *attr.Store, *storage.Store) {
	t.Helper()
	g, err := grid.New([3]float64{}, [3]float64{1, 1, 1}, [3]int{1, 1, 1})
	require.NoError(t, err)

	a := attr.New(1)
	for i := range ys {
		a.AddObject(i, i)
	}
	a.AddYVar("activity")

	st, err := storage.New(a, g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	for o, y := range ys {
		require.NoError(t, st.SetY(o, 0, y))
	}
	return New(a, st), a, st
}

func countFolds(p *Plan) int {
	n := 0
	for range p.Folds() {
		n++
	}
	return n
}

func TestLeaveOneOut(t *testing.T) {
	p, a, _ := newPartitioner(t, 1, 2, 3, 6, 100)
	require.NoError(t, a.SetObjectWeight(4, 0))

	plan, err := p.LeaveOneOut()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, plan.Structures)
	assert.Equal(t, 4, plan.FoldCount)
	assert.Equal(t, 4, plan.Predictions)
	// mean 3: 4 + 1 + 0 + 9
	assert.InDelta(t, 14.0, plan.TSS, 1e-12)
	assert.Equal(t, plan.FoldCount, countFolds(plan))

	var held [][]int
	for f := range plan.Folds() {
		held = append(held, f.HeldOut)
	}
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3}}, held)
}

func TestLeaveOneOut_NotEnough(t *testing.T) {
	p, _, _ := newPartitioner(t, 1)
	_, err := p.LeaveOneOut()
	require.ErrorIs(t, err, ErrNotEnoughObjects)
}

func TestLeaveOneOut_MissingY(t *testing.T) {
	p, _, _ := newPartitioner(t, 1, storage.Missing, storage.Missing)
	_, err := p.LeaveOneOut()
	require.ErrorIs(t, err, ErrNotEnoughObjects)
}

func TestLeaveOneOut_ManyYVars(t *testing.T) {
	p, a, st := newPartitioner(t, 1, 2, 3)
	a.AddYVar("toxicity")
	// storage sized its y array at creation; rebuild with two y variables.
	st2, err := storage.New(a, st.Grid())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st2.Close() })
	for o := range 3 {
		require.NoError(t, st2.SetY(o, 0, float32(o+1)))
		require.NoError(t, st2.SetY(o, 1, float32(2*o)))
	}
	p = New(a, st2)

	plan, err := p.LeaveOneOut()
	require.NoError(t, err)
	assert.Equal(t, 2, plan.YVars)
	assert.Equal(t, plan.FoldCount*2, plan.Predictions)
	// y0 mean 2: 1+0+1, y1 mean 2: 4+0+4
	assert.InDelta(t, 10.0, plan.TSS, 1e-12)
}

func TestLeaveTwoOut(t *testing.T) {
	p, _, _ := newPartitioner(t, 1, 2, 3, 6)

	plan, err := p.LeaveTwoOut()
	require.NoError(t, err)
	assert.Equal(t, 6, plan.FoldCount)
	assert.Equal(t, 12, plan.Predictions)
	// every structure appears in n-1 pairs
	assert.InDelta(t, 3*14.0, plan.TSS, 1e-12)

	var held [][]int
	for f := range plan.Folds() {
		held = append(held, f.HeldOut)
	}
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, held)

	p, _, _ = newPartitioner(t, 1, 2)
	_, err = p.LeaveTwoOut()
	require.ErrorIs(t, err, ErrNotEnoughObjects)
}

func TestGroupSizes(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, GroupSizes(10, 3))
	assert.Equal(t, []int{2, 2}, GroupSizes(4, 2))
	assert.Equal(t, []int{1, 1, 1, 1, 1}, GroupSizes(5, 5))
}

func TestLeaveManyOut(t *testing.T) {
	ys := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	p, _, _ := newPartitioner(t, ys...)

	plan, err := p.LeaveManyOut(3, 4, rng.New(42))
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	assert.Equal(t, 12, plan.FoldCount)
	assert.Equal(t, 40, plan.Predictions)
	assert.Equal(t, plan.FoldCount, countFolds(plan))
	require.Len(t, plan.Assignments, 4)
	for _, run := range plan.Assignments {
		require.Len(t, run, 3)
		assert.Len(t, run[0], 4)
		assert.Len(t, run[1], 3)
		assert.Len(t, run[2], 3)

		seen := map[int]int{}
		total := 0
		for _, g := range run {
			total += len(g)
			for _, s := range g {
				seen[s]++
			}
		}
		assert.Equal(t, 10, total)
		for s := range 10 {
			assert.Equal(t, 1, seen[s], "structure %d", s)
		}
	}

	// mean 5.5; sum of squared deviations 82.5, once per run
	assert.InDelta(t, 4*82.5, plan.TSS, 1e-9)
}

func TestLeaveManyOut_Deterministic(t *testing.T) {
	p, _, _ := newPartitioner(t, 1, 2, 3, 4, 5, 6, 7)

	a, err := p.LeaveManyOut(3, 5, rng.New(1234))
	require.NoError(t, err)
	b, err := p.LeaveManyOut(3, 5, rng.New(1234))
	require.NoError(t, err)
	assert.Equal(t, a.Assignments, b.Assignments)
}

func TestLeaveManyOut_Errors(t *testing.T) {
	p, _, _ := newPartitioner(t, 1, 2, 3, 4)

	_, err := p.LeaveManyOut(1, 1, rng.New(1))
	require.ErrorIs(t, err, ErrInvalidListRange)
	_, err = p.LeaveManyOut(2, 0, rng.New(1))
	require.ErrorIs(t, err, ErrInvalidListRange)
	_, err = p.LeaveManyOut(5, 1, rng.New(1))
	require.ErrorIs(t, err, ErrNotEnoughObjects)

	plan, err := p.LeaveManyOut(4, 1, rng.New(1))
	require.NoError(t, err)
	for _, g := range plan.Assignments[0] {
		assert.Len(t, g, 1)
	}
}

func TestFolds_StopEarly(t *testing.T) {
	p, _, _ := newPartitioner(t, 1, 2, 3, 4)
	plan, err := p.LeaveManyOut(2, 3, rng.New(7))
	require.NoError(t, err)

	n := 0
	for f := range plan.Folds() {
		n++
		if f.Run == 1 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestPlan_ValidateDetectsOverlap(t *testing.T) {
	plan := &Plan{
		Scheme:      LeaveManyOut,
		Structures:  []int{0, 1, 2},
		Assignments: [][][]int{{{0, 1}, {1}}},
	}
	require.ErrorIs(t, plan.Validate(), ErrInvalidListRange)
}

func TestParseScheme(t *testing.T) {
	for _, s := range []Scheme{LeaveOneOut, LeaveTwoOut, LeaveManyOut} {
		got, ok := ParseScheme(s.String())
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseScheme("k-fold")
	assert.False(t, ok)
}
