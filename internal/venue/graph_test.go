package venue_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

// edges turns a list of id pairs into an adjacency oracle.
func edges(pairs ...[2]string) venue.AdjacencyFunc {
	set := make(map[[2]string]bool)
	for _, p := range pairs {
		set[p] = true
	}
	return func(a, b *venue.Cell) bool {
		return set[[2]string{a.ID, b.ID}] || set[[2]string{b.ID, a.ID}]
	}
}

func area(id string, capacity float64, entrance bool) venue.Cell {
	return venue.NewArea(id, capacity, entrance, venue.AreaInfo{Name: id})
}

func path(id string, capacity float64) venue.Cell {
	return venue.NewPath(id, capacity, venue.PathInfo{})
}

func TestBuild_SymmetricAdjacency(t *testing.T) {
	cells := []venue.Cell{area("E", 0, true), path("P", 0), area("A", 50, false), area("B", 30, false)}
	g, err := venue.Build(cells, edges([2]string{"E", "P"}, [2]string{"P", "A"}, [2]string{"A", "B"}))
	require.NoError(t, err)

	assert.Equal(t, 4, g.CellCount())
	assert.Equal(t, 3, g.EdgeCount())
	for _, a := range g.Cells() {
		for _, b := range g.Cells() {
			assert.Equal(t, g.Adjoins(a.ID, b.ID), g.Adjoins(b.ID, a.ID), "%s/%s", a.ID, b.ID)
		}
	}
	assert.Equal(t, []string{"A", "E"}, g.Neighbors("P"))
	assert.Equal(t, 80.0, g.TotalCapacity())
}

func TestBuild_PredicateCalledOncePerPair(t *testing.T) {
	cells := []venue.Cell{area("a", 1, false), area("b", 1, false), area("c", 1, false)}
	calls := 0
	_, err := venue.Build(cells, func(a, b *venue.Cell) bool {
		calls++
		assert.NotEqual(t, a.ID, b.ID)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBuild_DuplicateIsConfigurationError(t *testing.T) {
	_, err := venue.Build([]venue.Cell{area("a", 1, false), path("a", 2)}, nil)
	var cfgErr *venue.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "a", cfgErr.CellID)
}

func TestBuild_RejectsMalformedCells(t *testing.T) {
	cases := []struct {
		name string
		cell venue.Cell
	}{
		{"negative capacity", area("a", -1, false)},
		{"missing id", area("", 1, false)},
		{"path entrance", venue.Cell{ID: "p", Kind: venue.KindPath, Entrance: true, Path: &venue.PathInfo{}}},
		{"kind mismatch", venue.Cell{ID: "x", Kind: venue.KindArea, Path: &venue.PathInfo{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := venue.Build([]venue.Cell{tc.cell}, nil)
			var cfgErr *venue.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestSubgraph_KeepsOnlyInducedEdges(t *testing.T) {
	cells := []venue.Cell{area("a", 1, false), area("b", 2, false), area("c", 4, false)}
	g, err := venue.Build(cells, edges([2]string{"a", "b"}, [2]string{"b", "c"}))
	require.NoError(t, err)

	sub := g.Subgraph(map[string]struct{}{"a": {}, "b": {}})
	assert.Equal(t, 2, sub.CellCount())
	assert.Equal(t, 1, sub.EdgeCount())
	assert.False(t, sub.Has("c"))
	assert.Equal(t, []string{"a"}, sub.Neighbors("b"))
	assert.Equal(t, 3.0, sub.TotalCapacity())
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]venue.Kind{"polygon": venue.KindArea, "LINE": venue.KindPath, "area": venue.KindArea} {
		got, err := venue.ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := venue.ParseKind("point")
	assert.Error(t, err)
}
