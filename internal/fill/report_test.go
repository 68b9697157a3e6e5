package fill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/dbc/internal/fill"
)

func TestSummarize_ReachAndKeep(t *testing.T) {
	res := &fill.Result{
		StaticCapacity: 30,
		TotalInflow:    45,
		DBC:            []float64{10, 30, 35, 20, 30},
		Unfilled:       []fill.UnfilledCell{{ID: "annex"}},
	}
	s := fill.Summarize(res, []float64{10, 20, 5, 0, 10}, []float64{0, 0, 0, 15, 0})

	assert.Equal(t, 1, s.ReachingMinute)
	assert.Equal(t, 3, s.KeepingMinutes)
	assert.Equal(t, 35.0, s.PeakDBC)
	assert.Equal(t, 2, s.PeakMinute)
	assert.Equal(t, 20.0, s.EntryAtReach)
	assert.Equal(t, 0.0, s.ExitAtReach)
	assert.Equal(t, 1, s.UnfilledCount)
	assert.Equal(t, 45.0, s.TotalInflow)
}

func TestSummarize_NeverReached(t *testing.T) {
	res := &fill.Result{StaticCapacity: 100, DBC: []float64{10, 20, 15}}
	s := fill.Summarize(res, nil, nil)

	assert.Equal(t, -1, s.ReachingMinute)
	assert.Zero(t, s.KeepingMinutes)
	assert.Equal(t, 20.0, s.PeakDBC)
	assert.Equal(t, 1, s.PeakMinute)
	assert.Zero(t, s.EntryAtReach)
}

func TestSummarize_ZeroCapacityNeverReaches(t *testing.T) {
	s := fill.Summarize(&fill.Result{DBC: []float64{0, 0}}, nil, nil)
	assert.Equal(t, -1, s.ReachingMinute)
}
