package venue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

func TestIsIsolatedPair(t *testing.T) {
	cells := []venue.Cell{
		area("lonely", 0, true),
		area("pocketA", 0, true), area("pocketB", 10, false),
		area("hub", 0, true), path("p1", 0), path("p2", 0),
		area("tail", 0, true), path("mid", 0), area("end", 5, false),
	}
	g, err := venue.Build(cells, edges(
		[2]string{"pocketA", "pocketB"},
		[2]string{"hub", "p1"}, [2]string{"hub", "p2"},
		[2]string{"tail", "mid"}, [2]string{"mid", "end"},
	))
	require.NoError(t, err)

	assert.True(t, venue.IsIsolatedPair(g, "lonely"), "no neighbors")
	assert.True(t, venue.IsIsolatedPair(g, "pocketA"), "mutual pocket")
	assert.True(t, venue.IsIsolatedPair(g, "pocketB"), "mutual pocket")
	assert.False(t, venue.IsIsolatedPair(g, "hub"), "two neighbors")
	assert.False(t, venue.IsIsolatedPair(g, "tail"), "single neighbor leading on")
}

func TestResolve_ExcludesDegenerateEntranceAndUnreachableCells(t *testing.T) {
	cells := []venue.Cell{
		area("E", 0, true), path("P", 0), area("A", 100, false),
		area("D", 0, true), area("Dx", 40, false), // pocket: D only touches Dx and vice versa
		area("island", 70, false), area("island2", 30, false),
	}
	g, err := venue.Build(cells, edges(
		[2]string{"E", "P"}, [2]string{"P", "A"},
		[2]string{"D", "Dx"},
		[2]string{"island", "island2"},
	))
	require.NoError(t, err)

	w, err := venue.Resolve(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"E"}, w.Entrances)
	assert.Equal(t, []string{"D"}, w.Degenerate)
	assert.ElementsMatch(t, []string{"D", "Dx", "island", "island2"}, w.Dropped)
	assert.Equal(t, 3, w.Graph.CellCount())
	assert.False(t, w.Graph.Has("island"))
	assert.Equal(t, 100.0, w.TotalCapacity)
	assert.True(t, w.IsEntrance("E"))
	assert.False(t, w.IsEntrance("D"))
}

func TestResolve_NoValidEntrance(t *testing.T) {
	g, err := venue.Build([]venue.Cell{area("E", 0, true), area("X", 5, false)}, edges([2]string{"E", "X"}))
	require.NoError(t, err)

	w, err := venue.Resolve(g)
	assert.ErrorIs(t, err, venue.ErrNoEntrance)
	assert.Equal(t, []string{"E"}, w.Degenerate)
}

func TestReachableFrom_MultipleEntrances(t *testing.T) {
	cells := []venue.Cell{area("a", 1, false), area("b", 1, false), area("c", 1, false), area("d", 1, false)}
	g, err := venue.Build(cells, edges([2]string{"a", "b"}, [2]string{"c", "d"}))
	require.NoError(t, err)

	got := venue.ReachableFrom(g, []string{"a", "d", "missing"})
	assert.Len(t, got, 4)
	assert.Len(t, venue.ReachableFrom(g, []string{"a"}), 2)
}
