package gridpls

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/blobstore"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/internal/fs"
	"github.com/hupe1980/gridpls/planstore"
	"github.com/hupe1980/gridpls/storage"
)

func testGrid(t *testing.T) grid.Grid {
	t.Helper()
	g, err := grid.New([3]float64{}, [3]float64{1, 1, 1}, [3]int{2, 1, 1})
	require.NoError(t, err)
	return g
}

// newTestSession declares four single-conformer structures with y = 1..4 and
// one field whose variable 0 is constant and variable 1 varies.
func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	g := testGrid(t)
	s, err := New(g, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for i := range 4 {
		_, err := s.AddObject(i, i)
		require.NoError(t, err)
	}
	_, err = s.AddYVar("activity")
	require.NoError(t, err)

	f, err := s.AddFields(t.Context(), g, 1)
	require.NoError(t, err)
	require.Equal(t, 0, f)

	for obj := range 4 {
		require.NoError(t, s.SetX(f, obj, 0, 1))
		require.NoError(t, s.SetX(f, obj, 1, float32(obj*obj)))
		require.NoError(t, s.SetY(obj, 0, float32(obj+1)))
	}
	return s
}

func TestSession_Recompute(t *testing.T) {
	for _, mode := range []storage.Mode{storage.ModeResident, storage.ModePaged} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newTestSession(t, WithMode(mode), WithTempDir(t.TempDir()))

			counts, err := s.Recompute(t.Context())
			require.NoError(t, err)
			assert.Equal(t, attr.Counts{ActiveFields: 1, ActiveObjects: 4}, counts)
			assert.Equal(t, counts, s.Counts())

			assert.Equal(t, []uint32{1}, s.Attrs().ActiveVars(0).ToArray())
			assert.Equal(t, 1, s.Attrs().Field(0).ActiveVars)
			assert.InDelta(t, 2.5, s.Attrs().YVar(0).Mean, 1e-12)

			require.NoError(t, s.Attrs().SetObjectStatus(3, attr.ObjectPredict))
			counts, err = s.Recompute(t.Context())
			require.NoError(t, err)
			assert.Equal(t, attr.Counts{ActiveFields: 1, ActiveObjects: 3, TestObjects: 1}, counts)
			assert.InDelta(t, 2.0, s.Attrs().YVar(0).Mean, 1e-12)
		})
	}
}

func TestSession_LayoutFrozen(t *testing.T) {
	s := newTestSession(t)

	_, err := s.AddObject(9, 9)
	require.ErrorIs(t, err, ErrLayoutFrozen)
	_, err = s.AddYVar("late")
	require.ErrorIs(t, err, ErrLayoutFrozen)
}

func TestSession_AddFields(t *testing.T) {
	s := newTestSession(t)

	other, err := grid.New([3]float64{0.5, 0, 0}, [3]float64{1, 1, 1}, [3]int{2, 1, 1})
	require.NoError(t, err)
	_, err = s.AddFields(t.Context(), other, 1)
	var gm *ErrGridMismatch
	require.ErrorAs(t, err, &gm)
	assert.Equal(t, other, gm.Got)
	var inner *grid.ErrMismatch
	require.ErrorAs(t, err, &inner)

	_, err = s.AddFields(t.Context(), s.Grid(), 0)
	require.ErrorIs(t, err, ErrInvalidListRange)

	f, err := s.AddFields(t.Context(), s.Grid(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, f)
	assert.Equal(t, 3, s.Attrs().NumFields())
	assert.Equal(t, 3, s.Values().NumFields())
}

func TestSession_Values(t *testing.T) {
	s := newTestSession(t)

	v, err := s.GetX(0, 2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = s.GetX(5, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidListRange)

	require.NoError(t, s.ImportPage(t.Context(), 0, 1, []float32{7, 8}))
	v, err = s.GetX(0, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)

	assert.Equal(t, 3.0, s.GetY(2, 0, 0))
	assert.True(t, storage.IsMissing(s.GetY(9, 0, 0)))
}

func TestSession_NoValues(t *testing.T) {
	s, err := New(testGrid(t))
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Values())
	_, err = s.GetX(0, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidListRange)
	_, err = s.LeaveOneOut(t.Context())
	require.ErrorIs(t, err, ErrInvalidListRange)
	assert.True(t, storage.IsMissing(s.GetY(0, 0, 0)))
}

func TestSession_Partitions(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newTestSession(t, WithMetricsCollector(metrics))
	_, err := s.Recompute(t.Context())
	require.NoError(t, err)

	loo, err := s.LeaveOneOut(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, loo.FoldCount)

	lto, err := s.LeaveTwoOut(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 6, lto.FoldCount)

	rec, err := s.LeaveManyOut(t.Context(), 2, 3, "")
	require.NoError(t, err)
	require.NoError(t, rec.Plan.Validate())
	assert.Equal(t, 6, rec.Plan.FoldCount)

	_, err = s.LeaveManyOut(t.Context(), 5, 1, "")
	require.ErrorIs(t, err, ErrNotEnoughObjects)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.PartitionCount)
	assert.Equal(t, int64(1), stats.PartitionErrors)
	assert.Equal(t, int64(16), stats.PartitionFolds)
	assert.Equal(t, int64(1), stats.RecomputeCount)

	_, err = s.Plans(t.Context())
	require.ErrorIs(t, err, ErrNoPlanStore)
}

func TestSession_SeededPlansRepeat(t *testing.T) {
	a := newTestSession(t, WithSeed(7))
	b := newTestSession(t, WithSeed(7))

	ra, err := a.LeaveManyOut(t.Context(), 2, 4, "")
	require.NoError(t, err)
	rb, err := b.LeaveManyOut(t.Context(), 2, 4, "")
	require.NoError(t, err)
	assert.Equal(t, ra.Seed, rb.Seed)
	assert.Equal(t, ra.Plan.Assignments, rb.Plan.Assignments)

	b.Seed(7)
	again, err := b.LeaveManyOut(t.Context(), 2, 4, "")
	require.NoError(t, err)
	assert.Equal(t, ra.Seed, again.Seed)
}

func TestSession_PlanStore(t *testing.T) {
	ps := planstore.NewMemoryStore()
	require.NoError(t, ps.Init(t.Context()))
	s := newTestSession(t, WithPlanStore(ps))

	rec, err := s.LeaveManyOut(t.Context(), 2, 3, "weekly")
	require.NoError(t, err)

	list, err := s.Plans(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
	assert.Equal(t, "weekly", list[0].Label)

	// Draw another plan so the session generator has moved on.
	_, err = s.LeaveManyOut(t.Context(), 2, 1, "")
	require.NoError(t, err)

	replayed, err := s.ReplayPlan(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Plan.Assignments, replayed.Assignments)
	assert.InDelta(t, rec.Plan.TSS, replayed.TSS, 1e-9)

	_, err = s.ReplayPlan(t.Context(), "unknown")
	require.ErrorIs(t, err, ErrInvalidListRange)
}

func TestSession_SaveLoad(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newTestSession(t, WithMetricsCollector(metrics))
	require.NoError(t, s.Attrs().SetObjectWeight(2, 0.5))
	require.NoError(t, s.Attrs().SetFieldSDCutoff(0, 0.1))
	_, err := s.Recompute(t.Context())
	require.NoError(t, err)

	bs := blobstore.NewMemoryStore()
	m, err := s.Save(t.Context(), bs)
	require.NoError(t, err)
	assert.Positive(t, m.StoredBytes())

	loaded, err := Load(t.Context(), bs, WithMode(storage.ModePaged), WithTempDir(t.TempDir()), WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, storage.ModePaged, loaded.Values().Mode())
	assert.Equal(t, s.Grid(), loaded.Grid())
	assert.Equal(t, s.Counts(), loaded.Counts())
	assert.Equal(t, s.Attrs().Field(0), loaded.Attrs().Field(0))
	assert.Equal(t, 0.5, loaded.Attrs().Object(2).Weight)
	for obj := range 4 {
		for x := range 2 {
			want, err := s.GetX(0, obj, x, 0)
			require.NoError(t, err)
			got, err := loaded.GetX(0, obj, x, 0)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		assert.Equal(t, s.GetY(obj, 0, 0), loaded.GetY(obj, 0, 0))
	}

	counts, err := loaded.Recompute(t.Context())
	require.NoError(t, err)
	assert.Equal(t, s.Counts(), counts)
	assert.Equal(t, s.Attrs().YVar(0), loaded.Attrs().YVar(0))

	assert.Equal(t, int64(2), metrics.GetStats().ArchiveCount)
	assert.Zero(t, metrics.GetStats().ArchiveErrors)
}

func TestLoad_Empty(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	_, err := Load(t.Context(), blobstore.NewMemoryStore(), WithMetricsCollector(metrics))
	require.Error(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().ArchiveErrors)
}

func TestSession_FieldSwitchMetrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s := newTestSession(t, WithMode(storage.ModePaged), WithTempDir(t.TempDir()), WithMetricsCollector(metrics))
	_, err := s.AddFields(t.Context(), s.Grid(), 1)
	require.NoError(t, err)

	before := metrics.GetStats().FieldSwitches
	for _, f := range []int{0, 1, 0, 1} {
		_, err := s.GetX(f, 0, 0, 0)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, metrics.GetStats().FieldSwitches-before, int64(3))
}

func TestSession_MemoryLimit(t *testing.T) {
	// 4 objects x 2 variables x 4 bytes per field.
	s := newTestSession(t, WithMemoryLimit(40))

	_, err := s.AddFields(t.Context(), s.Grid(), 1)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 1, s.Attrs().NumFields())
}

func TestSession_FaultyFileSystem(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("field-0001", fs.Fault{FailOnTruncate: true, FailAfterBytes: -1})
	s := newTestSession(t, WithMode(storage.ModePaged), WithTempDir(t.TempDir()), WithFileSystem(ffs))

	_, err := s.AddFields(t.Context(), s.Grid(), 2)
	require.ErrorIs(t, err, ErrCannotWriteTempFile)
	require.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, 1, s.Attrs().NumFields(), "fields allocated before the failure are kept")
	assert.Equal(t, 1, s.Values().NumFields())
}

func TestSession_Close(t *testing.T) {
	s := newTestSession(t, WithMode(storage.ModePaged), WithTempDir(t.TempDir()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.AddObject(1, 1)
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.GetX(0, 0, 0, 0)
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Recompute(t.Context())
	require.ErrorIs(t, err, ErrClosed)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	err := translateError(storage.ErrClosed)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, storage.ErrClosed)

	err = translateError(storage.ErrGridMismatch)
	var gm *ErrGridMismatch
	require.True(t, errors.As(err, &gm))

	plain := errors.New("plain")
	assert.Equal(t, plain, translateError(plain))
}
