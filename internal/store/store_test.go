package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dbc/internal/fill"
	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

// newTestStore creates an in-memory store closed at test end.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(created time.Time) *Run {
	return &Run{
		ID:          uuid.NewString(),
		CreatedAt:   created,
		ProfileID:   "weekday",
		ProfileKind: "static",
		Params:      map[string]float64{"max_v": 120},
		Duration:    4,
		TimeStep:    1,
		Summary: fill.Summary{
			StaticCapacity: 30,
			TotalInflow:    40,
			PeakDBC:        30,
			PeakMinute:     2,
			ReachingMinute: 2,
			KeepingMinutes: 2,
		},
		Saturated:  []string{"gate", "hall"},
		Unfilled:   []fill.UnfilledCell{{ID: "annex", Kind: venue.KindArea, Neighbors: []string{"hall"}}},
		Degenerate: []string{"side"},
		DBC:        []float64{10, 20, 30, 30},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := sampleRun(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
	assert.Equal(t, want.ProfileID, got.ProfileID)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, want.Saturated, got.Saturated)
	assert.Equal(t, want.Unfilled, got.Unfilled)
	assert.Equal(t, want.Degenerate, got.Degenerate)
	assert.Equal(t, want.DBC, got.DBC)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := sampleRun(time.Now())
	require.NoError(t, s.Save(ctx, r))
	assert.Error(t, s.Save(ctx, r))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, got.DBC, 4, "failed save must not leave partial series")
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		r := sampleRun(base.Add(time.Duration(i) * time.Hour))
		if i == 1 {
			r.ProfileID = ""
		}
		require.NoError(t, s.Save(ctx, r))
		ids = append(ids, r.ID)
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Empty(t, runs[1].ProfileID)
	assert.Nil(t, runs[0].DBC, "list omits series")

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := sampleRun(time.Now())
	require.NoError(t, s.Save(ctx, r))

	require.NoError(t, s.Delete(ctx, r.ID))
	_, err := s.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, r.ID), ErrNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM dbc_series`).Scan(&n))
	assert.Zero(t, n)
}
