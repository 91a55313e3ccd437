package stats

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/internal/resource"
	"github.com/hupe1980/gridpls/storage"
)

type fixture struct {
	attrs *attr.Store
	store *storage.Store
	eng   *Engine
}

// newFixture builds one field of 3 variables; object i belongs to
// structure structs[i] and holds values rows[i].
func newFixture(t *testing.T, structs []int, rows [][3]float32) *fixture {
	t.Helper()
	g, err := grid.New([3]float64{}, [3]float64{1, 1, 1}, [3]int{3, 1, 1})
	require.NoError(t, err)

	a := attr.New(3)
	for i, s := range structs {
		a.AddObject(i, s)
	}
	a.AddYVar("y")
	a.AddFields(1)

	st, err := storage.New(a, g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.AddFields(1))

	for o, row := range rows {
		for x, v := range row {
			require.NoError(t, st.SetX(0, o, x, v))
		}
	}
	rc := resource.NewController(resource.Config{Workers: 3})
	return &fixture{attrs: a, store: st, eng: New(a, st, WithResources(rc))}
}

func column(rows [][3]float32, x int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = float64(r[x])
	}
	return out
}

func TestAverageX(t *testing.T) {
	rows := [][3]float32{{1, 0, 0}, {2, 0, 0}, {4, 0, 0}, {100, 0, 0}}
	fx := newFixture(t, []int{0, 1, 2, 3}, rows)
	require.NoError(t, fx.attrs.SetObjectWeight(1, 2))
	require.NoError(t, fx.attrs.SetObjectWeight(2, 3))
	require.NoError(t, fx.attrs.SetObjectStatus(3, attr.ObjectPredict))

	got, err := fx.eng.AverageX(0, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 17.0/6.0, got, 1e-12)

	for o := range 3 {
		require.NoError(t, fx.attrs.SetObjectWeight(o, 0))
	}
	got, err = fx.eng.AverageX(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestAverageX_SkipsMissing(t *testing.T) {
	rows := [][3]float32{{1, 0, 0}, {storage.Missing, 0, 0}, {3, 0, 0}}
	fx := newFixture(t, []int{0, 1, 2}, rows)

	got, err := fx.eng.AverageX(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestStddevX_UniformWeights(t *testing.T) {
	rows := [][3]float32{{1, 10, 0}, {2, 10, 0}, {3, 10, 0}, {4, 10, 0}, {5, 10, 0}, {-7.5, 10, 0}}
	fx := newFixture(t, []int{0, 1, 2, 3, 4, 5}, rows)

	got, err := fx.eng.StddevX(0, 0, 0)
	require.NoError(t, err)
	want := math.Sqrt(stat.Variance(column(rows, 0), nil))
	assert.InEpsilon(t, want, got, 1e-9)

	got, err = fx.eng.StddevX(0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestStddevX_Weighted(t *testing.T) {
	rows := [][3]float32{{1.5, 0, 0}, {-2, 0, 0}, {8, 0, 0}, {3.25, 0, 0}}
	weights := []float64{1, 0.5, 2, 3}
	fx := newFixture(t, []int{0, 1, 2, 3}, rows)
	for o, w := range weights {
		require.NoError(t, fx.attrs.SetObjectWeight(o, w))
	}

	// two-pass reference
	xs := column(rows, 0)
	var sw, sxw float64
	for i, x := range xs {
		sw += weights[i]
		sxw += weights[i] * x
	}
	m := sxw / sw
	var ss float64
	for i, x := range xs {
		ss += weights[i] * (x - m) * (x - m)
	}
	n := float64(len(xs))
	want := math.Sqrt(ss / sw * n / (n - 1))

	got, err := fx.eng.StddevX(0, 0, 0)
	require.NoError(t, err)
	assert.InEpsilon(t, want, got, 1e-9)
}

func TestStddevX_Structures(t *testing.T) {
	// Objects 0 and 1 are conformers of structure 7 and average to 2.
	rows := [][3]float32{{1, 0, 0}, {3, 0, 0}, {6, 0, 0}}
	fx := newFixture(t, []int{7, 7, 9}, rows)

	got, err := fx.eng.StddevX(0, 0, 0)
	require.NoError(t, err)

	// samples 2 (weight 2) and 6 (weight 1)
	m := (2.0*2 + 6.0) / 3
	ss := 2*(2-m)*(2-m) + (6-m)*(6-m)
	want := math.Sqrt(ss / 3 * 2)
	assert.InEpsilon(t, want, got, 1e-9)
}

func TestStddevX_FewerThanTwoStructures(t *testing.T) {
	rows := [][3]float32{{1, 0, 0}, {5, 0, 0}, {9, 0, 0}}
	fx := newFixture(t, []int{3, 3, 4}, rows)
	require.NoError(t, fx.attrs.SetObjectStatus(2, attr.ObjectDeleted))

	got, err := fx.eng.StddevX(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestStddevX_FieldRange(t *testing.T) {
	fx := newFixture(t, []int{0}, [][3]float32{{1, 2, 3}})
	_, err := fx.eng.StddevX(3, 0, 0)
	require.ErrorIs(t, err, storage.ErrFieldRange)
	_, err = fx.eng.AverageX(0, 3, 0)
	require.ErrorIs(t, err, storage.ErrIndexRange)
}

func TestYMoments(t *testing.T) {
	fx := newFixture(t, []int{0, 1, 2, 3}, make([][3]float32, 4))
	ys := []float32{2, 4, 4, 10}
	for o, y := range ys {
		require.NoError(t, fx.store.SetY(o, 0, y))
	}

	assert.Equal(t, 5.0, fx.eng.AverageY(0, 0))
	want := math.Sqrt(stat.Variance([]float64{2, 4, 4, 10}, nil))
	assert.InEpsilon(t, want, fx.eng.StddevY(0, 0), 1e-9)

	require.NoError(t, fx.attrs.SetYWeight(0, 2))
	assert.Equal(t, 10.0, fx.eng.AverageY(0, storage.FlagWeight))

	require.NoError(t, fx.eng.UpdateYSummaries())
	yv := fx.attrs.YVar(0)
	assert.Equal(t, 5.0, yv.Mean)
	assert.InEpsilon(t, want, yv.SD, 1e-9)
}

func TestClassify(t *testing.T) {
	rows := [][3]float32{{1, 5, 1}, {2, 5, 3}, {3, 5, 5}}
	fx := newFixture(t, []int{0, 1, 2}, rows)
	require.NoError(t, fx.attrs.SetFieldSDCutoff(0, 0.5))
	require.NoError(t, fx.attrs.SetVarFlags(0, 2, attr.VarDelete))

	require.NoError(t, fx.eng.Classify())

	assert.True(t, fx.attrs.VarFlags(0, 0).Has(attr.VarActive))
	assert.False(t, fx.attrs.VarFlags(0, 1).Has(attr.VarActive), "constant variable")
	assert.False(t, fx.attrs.VarFlags(0, 2).Has(attr.VarActive), "deleted variable")
	assert.Equal(t, 1, fx.attrs.Field(0).ActiveVars)

	// Raising the cutoff above the spread deactivates the variable.
	require.NoError(t, fx.attrs.SetFieldSDCutoff(0, 1))
	require.NoError(t, fx.eng.Classify())
	assert.Equal(t, 0, fx.attrs.Field(0).ActiveVars)
}

func TestSummaries(t *testing.T) {
	rows := [][3]float32{{1, 2, 0}, {3, 2, 0}, {5, 8, 0}}
	fx := newFixture(t, []int{0, 1, 2}, rows)

	sum, err := fx.eng.Summaries(0, DefaultFlags)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sum.Mean.At(0))
	assert.Equal(t, 4.0, sum.Mean.At(1))
	assert.InEpsilon(t, 2.0, sum.SD.At(0), 1e-12)
	assert.Equal(t, 0.0, sum.SD.At(2))
}

func TestFieldSummary(t *testing.T) {
	rows := [][3]float32{{-1, 0, 4}, {storage.Missing, 0, 2}, {9, 9, 9}}
	fx := newFixture(t, []int{0, 1, 2}, rows)
	require.NoError(t, fx.attrs.SetObjectStatus(2, attr.ObjectPredict))

	fs, err := fx.eng.FieldSummary(0)
	require.NoError(t, err)
	assert.Equal(t, FieldStats{Min: -1, Max: 4, Zeros: 2}, fs)

	f := fx.attrs.Field(0)
	assert.Equal(t, -1.0, f.Min)
	assert.Equal(t, 4.0, f.Max)
	assert.Equal(t, 2, f.Zeros)
}

func TestRankVariables(t *testing.T) {
	rows := [][3]float32{{0, 0, 0}, {1, 10, 1}, {2, 20, 2}}
	fx := newFixture(t, []int{0, 1, 2}, rows)

	ranked, err := fx.eng.RankVariables(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, ranked)

	require.NoError(t, fx.attrs.ClearVarFlags(0, 1, attr.VarActive))
	ranked, err = fx.eng.RankVariables(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, ranked)
}

func TestTanimoto(t *testing.T) {
	rows := [][3]float32{
		{1, 2, 3},  // structure 0
		{2, 4, 6},  // structure 1, conformer a
		{0, 0, 0},  // structure 1, conformer b
		{-1, 0, 0}, // structure 2
		{0, 0, 0},  // structure 3
	}
	fx := newFixture(t, []int{0, 1, 1, 2, 3}, rows)

	m, err := fx.eng.Tanimoto(0)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 1, c)

	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
	// structure 1 averages to (1,2,3)
	assert.InDelta(t, 1.0, m.At(1, 0), 1e-12)
	// ab=-1, aa=14, bb=1
	assert.InDelta(t, -1.0/16.0, m.At(2, 0), 1e-12)
	// zero profile
	assert.InDelta(t, 0.0, m.At(3, 0), 1e-12)

	// Only active variables contribute.
	require.NoError(t, fx.attrs.ClearVarFlags(0, 0, attr.VarActive))
	m, err = fx.eng.Tanimoto(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m.At(2, 0), 1e-12)

	_, err = fx.eng.Tanimoto(9)
	require.ErrorIs(t, err, attr.ErrInvalidListRange)
}

func TestFanOut_SharesWorkerPool(t *testing.T) {
	const callers = 4
	rc := resource.NewController(resource.Config{Workers: 2})
	e := New(nil, nil, WithResources(rc))

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.fanOut(32, func(int) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Two pooled workers plus each caller running a chunk itself.
	assert.LessOrEqual(t, peak.Load(), int32(rc.Workers()+callers))
	require.True(t, rc.TryAcquireWorker(), "workers released")
	rc.ReleaseWorker()
}

func TestFanOut_ReturnsWorkerError(t *testing.T) {
	boom := errors.New("boom")
	for _, workers := range []int{1, 3} {
		e := New(nil, nil, WithResources(resource.NewController(resource.Config{Workers: workers})))
		var calls atomic.Int32
		err := e.fanOut(10, func(x int) error {
			calls.Add(1)
			if x == 7 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom, "workers=%d", workers)
		assert.LessOrEqual(t, calls.Load(), int32(10))
	}
}
