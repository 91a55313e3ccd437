package planstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridpls/attr"
	"github.com/hupe1980/gridpls/codec"
	"github.com/hupe1980/gridpls/cv"
	"github.com/hupe1980/gridpls/grid"
	"github.com/hupe1980/gridpls/rng"
	"github.com/hupe1980/gridpls/storage"
)

func newPartitioner(t *testing.T, structures int) *cv.Partitioner {
	t.Helper()
	g, err := grid.New([3]float64{}, [3]float64{1, 1, 1}, [3]int{1, 1, 1})
	require.NoError(t, err)

	a := attr.New(1)
	for i := range structures {
		a.AddObject(i, i)
	}
	a.AddYVar("activity")

	st, err := storage.New(a, g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	for o := range structures {
		require.NoError(t, st.SetY(o, 0, float32(o*o)))
	}
	return cv.New(a, st)
}

func lmoPlan(t *testing.T, seed uint32) *cv.Plan {
	t.Helper()
	plan, err := newPartitioner(t, 7).LeaveManyOut(3, 4, rng.New(seed))
	require.NoError(t, err)
	return plan
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"), WithCodec(codec.JSON{})),
	}
	for _, s := range stores {
		require.NoError(t, s.Init(t.Context()))
		t.Cleanup(func() { _ = s.Close() })
	}
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := NewRecord(lmoPlan(t, 4357), 4357, "baseline")

			id, err := s.Save(t.Context(), rec)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, id)
			_, err = uuid.Parse(id)
			require.NoError(t, err)

			got, ok, err := s.Get(t.Context(), id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, rec.Label, got.Label)
			assert.Equal(t, rec.Seed, got.Seed)
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, rec.Plan, got.Plan)
			require.NoError(t, got.Plan.Validate())
		})
	}
}

func TestStore_Reproduce(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.Save(t.Context(), NewRecord(lmoPlan(t, 99), 99, ""))
			require.NoError(t, err)

			got, ok, err := s.Get(t.Context(), id)
			require.NoError(t, err)
			require.True(t, ok)

			again := lmoPlan(t, got.Seed)
			assert.Equal(t, again.Assignments, got.Plan.Assignments)
			assert.InDelta(t, again.TSS, got.Plan.TSS, 1e-9)
		})
	}
}

func TestStore_Missing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(t.Context(), "does-not-exist")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Delete(t.Context(), "does-not-exist"))
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			loo, err := newPartitioner(t, 4).LeaveOneOut()
			require.NoError(t, err)
			lto, err := newPartitioner(t, 4).LeaveTwoOut()
			require.NoError(t, err)

			late := Record{ID: "late", Plan: lto, CreatedAt: base.Add(time.Hour)}
			early := Record{ID: "early", Label: "first", Plan: loo, CreatedAt: base}
			_, err = s.Save(t.Context(), late)
			require.NoError(t, err)
			_, err = s.Save(t.Context(), early)
			require.NoError(t, err)

			list, err := s.List(t.Context())
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "early", list[0].ID)
			assert.Equal(t, "first", list[0].Label)
			assert.Equal(t, cv.LeaveOneOut, list[0].Scheme)
			assert.Equal(t, 4, list[0].FoldCount)
			assert.True(t, base.Equal(list[0].CreatedAt))
			assert.Equal(t, "late", list[1].ID)
			assert.Equal(t, cv.LeaveTwoOut, list[1].Scheme)
			assert.Equal(t, 6, list[1].FoldCount)

			// Saving an existing ID replaces the record.
			late.Label = "replaced"
			_, err = s.Save(t.Context(), late)
			require.NoError(t, err)
			got, ok, err := s.Get(t.Context(), "late")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "replaced", got.Label)

			require.NoError(t, s.Delete(t.Context(), "early"))
			list, err = s.List(t.Context())
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "late", list[0].ID)
		})
	}
}

func TestStore_InvalidRecord(t *testing.T) {
	plan := lmoPlan(t, 1)
	plan.Assignments[0][0] = append(plan.Assignments[0][0], plan.Structures[0])

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(t.Context(), Record{})
			require.ErrorIs(t, err, ErrInvalidRecord)

			_, err = s.Save(t.Context(), Record{Plan: plan})
			require.ErrorIs(t, err, ErrInvalidRecord)
			require.ErrorIs(t, err, cv.ErrInvalidListRange)
		})
	}
}

func TestStore_GeneratesID(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			loo, err := newPartitioner(t, 3).LeaveOneOut()
			require.NoError(t, err)

			id, err := s.Save(t.Context(), Record{Plan: loo})
			require.NoError(t, err)
			require.NotEmpty(t, id)

			got, ok, err := s.Get(t.Context(), id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestStore_NotInitialized(t *testing.T) {
	for name, s := range map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db")),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Get(t.Context(), "x")
			require.ErrorIs(t, err, ErrNotInitialized)
			_, err = s.List(t.Context())
			require.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = NewStore("postgres", "")
	require.Error(t, err)

	require.Error(t, NewSQLiteStore("").Init(t.Context()))
}
