package fill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dbc/internal/fill"
	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

const eps = 1e-9

type link [2]string

// working builds and resolves a venue from cells and links.
func working(t *testing.T, cells []venue.Cell, links ...link) *venue.Working {
	t.Helper()
	set := make(map[link]bool, len(links))
	for _, l := range links {
		set[l] = true
	}
	g, err := venue.Build(cells, func(a, b *venue.Cell) bool {
		return set[link{a.ID, b.ID}] || set[link{b.ID, a.ID}]
	})
	require.NoError(t, err)
	w, err := venue.Resolve(g)
	require.NoError(t, err)
	return w
}

func entrance(id string) venue.Cell {
	return venue.NewArea(id, 0, true, venue.AreaInfo{Name: id})
}

func room(id string, capacity float64) venue.Cell {
	return venue.NewArea(id, capacity, false, venue.AreaInfo{Name: id})
}

func corridor(id string, capacity float64) venue.Cell {
	return venue.NewPath(id, capacity, venue.PathInfo{})
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func nodeByID(t *testing.T, res *fill.Result, id string) *fill.Node {
	t.Helper()
	for _, n := range res.Nodes {
		if n.ID() == id {
			return n
		}
	}
	t.Fatalf("node %s not in ledger", id)
	return nil
}

// Entrance E (capacity 0) adjoining X (capacity 100), 10/min for 20 minutes.
func TestExecute_SingleCellSaturatesAtTen(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 100)}, link{"E", "X"})
	res, err := fill.New(w).Execute(constant(10, 20), 20)
	require.NoError(t, err)

	x := nodeByID(t, res, "X")
	at, ok := x.CompletedAt()
	require.True(t, ok)
	assert.InDelta(t, 10.0, at, eps)
	assert.True(t, x.Saturated())

	rec := fill.NewReconstructor(res.Nodes)
	assert.InDelta(t, 50.0, rec.At(5), eps)
	assert.InDelta(t, 100.0, rec.At(15), eps)
	assert.InDelta(t, 25.0, rec.At(2.5), eps)

	require.Len(t, res.DBC, 20)
	assert.InDelta(t, 10.0, res.DBC[0], eps)
	assert.InDelta(t, 100.0, res.DBC[9], eps)
	assert.InDelta(t, 100.0, res.DBC[19], eps)
	assert.Equal(t, []string{"E", "X"}, res.Saturated)
	assert.Empty(t, res.Unfilled)
	assert.InDelta(t, 200.0, res.TotalInflow, eps)
}

// Chain E→X(50)→Y(50), 100/min for one minute: leftover time carries Y.
func TestExecute_LeftoverTimeChainsIntoNextCell(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 50), room("Y", 50)}, link{"E", "X"}, link{"X", "Y"})
	res, err := fill.New(w).Execute([]float64{100}, 1)
	require.NoError(t, err)

	x := nodeByID(t, res, "X")
	xAt, _ := x.CompletedAt()
	assert.InDelta(t, 0.5, xAt, eps)

	y := nodeByID(t, res, "Y")
	yAt, ok := y.CompletedAt()
	require.True(t, ok)
	assert.InDelta(t, 1.0, yAt, eps)
	assert.InDelta(t, 50.0, y.Filled(), eps)
	require.NotEmpty(t, y.Samples())
	assert.InDelta(t, 0.5, y.Samples()[0].At, eps)
	assert.InDelta(t, 100.0, y.Samples()[0].Rate, eps)

	rec := fill.NewReconstructor(res.Nodes)
	assert.InDelta(t, 100.0, rec.At(1.0), eps)
	assert.InDelta(t, 50.0, rec.At(0.5), eps)
	assert.InDelta(t, 75.0, rec.At(0.75), eps)
	assert.Equal(t, []float64{100}, res.DBC)
}

// Single cell of capacity 10 with inflow [5, -3, 5]. The outflow minute only
// touches the aggregate; the next positive minute reads the cell state again,
// which never saw the outflow.
func TestExecute_OutflowDecrementsAggregateOnly(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("C", 10)}, link{"E", "C"})
	res, err := fill.New(w).Execute([]float64{5, -3, 5}, 3)
	require.NoError(t, err)

	require.Len(t, res.DBC, 3)
	assert.InDelta(t, 5.0, res.DBC[0], eps)
	assert.InDelta(t, 2.0, res.DBC[1], eps)
	assert.InDelta(t, 10.0, res.DBC[2], eps)

	c := nodeByID(t, res, "C")
	rec := fill.NewReconstructor(res.Nodes)
	// The idle minute is not interpolated as fill.
	assert.InDelta(t, 5.0, rec.At(1.5), eps)
	assert.InDelta(t, 5.0, c.AmountAt(2), eps)
}

func TestExecute_OutflowFloorsAtZero(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("C", 100)}, link{"E", "C"})
	res, err := fill.New(w).Execute([]float64{4, -10, -1, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 0, 0, 0}, res.DBC)
}

// An entrance whose only neighbor only touches it is ignored, and cells
// unreachable from a valid entrance never show up.
func TestExecute_DegenerateEntranceAndUnreachableCells(t *testing.T) {
	w := working(t, []venue.Cell{
		entrance("E"), room("X", 20),
		entrance("D"), room("Dx", 500),
		room("far", 1000),
	}, link{"E", "X"}, link{"D", "Dx"})
	require.Equal(t, []string{"D"}, w.Degenerate)

	res, err := fill.New(w).Execute(constant(10, 5), 5)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, res.StaticCapacity, eps)
	for _, n := range res.Nodes {
		assert.NotContains(t, []string{"D", "Dx", "far"}, n.ID())
	}
	for _, db := range res.DBC {
		assert.LessOrEqual(t, db, 20.0+eps)
	}
	assert.Equal(t, []string{"D"}, res.Degenerate)
}

func TestExecute_ZeroCapacityCorridorIsPassable(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), corridor("P", 0), room("A", 30)}, link{"E", "P"}, link{"P", "A"})
	sim := fill.New(w)

	p := sim.Frontier().Nodes()
	require.Len(t, p, 1)
	at, ok := p[0].CompletedAt()
	require.True(t, ok, "corridor starts completed")
	assert.Equal(t, 0.0, at)

	res, err := sim.Execute(constant(10, 4), 4)
	require.NoError(t, err)
	a := nodeByID(t, res, "A")
	aAt, _ := a.CompletedAt()
	assert.InDelta(t, 3.0, aAt, eps)
	assert.Equal(t, []float64{10, 20, 30, 30}, res.DBC)
}

func TestExecute_ZeroCapacityCellReachedLaterCompletesInstantly(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("A", 10), corridor("P", 0), room("B", 10)},
		link{"E", "A"}, link{"A", "P"}, link{"P", "B"})
	res, err := fill.New(w).Execute(constant(10, 3), 3)
	require.NoError(t, err)

	p := nodeByID(t, res, "P")
	pAt, _ := p.CompletedAt()
	assert.InDelta(t, 1.0, pAt, eps)
	b := nodeByID(t, res, "B")
	bAt, _ := b.CompletedAt()
	assert.InDelta(t, 2.0, bAt, eps)
	assert.InDelta(t, 20.0, res.DBC[2], eps)
}

func TestExecute_ShallowestReservoirFillsFirst(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("big", 100), room("small", 10)},
		link{"E", "big"}, link{"E", "small"})
	res, err := fill.New(w).Execute(constant(10, 2), 2)
	require.NoError(t, err)

	small := nodeByID(t, res, "small")
	at, _ := small.CompletedAt()
	assert.InDelta(t, 1.0, at, eps)
	big := nodeByID(t, res, "big")
	assert.InDelta(t, 10.0, big.Filled(), eps)
	assert.False(t, big.Saturated())
}

// Equal remaining capacity: the lowest id wins.
func TestExecute_TieBreakByLowestID(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("b", 10), room("a", 10)},
		link{"E", "a"}, link{"E", "b"})
	res, err := fill.New(w).Execute([]float64{10}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"E", "a"}, res.Saturated)
}

// Positive inflow while nothing can absorb it is lost.
func TestExecute_InflowWithNoActiveCellIsLost(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 10)}, link{"E", "X"})
	res, err := fill.New(w).Execute(constant(10, 5), 5)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, res.TotalInflow, eps)
	assert.Equal(t, []float64{10, 10, 10, 10, 10}, res.DBC)
}

func TestExecute_ForceCompletesAtHorizon(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("A", 100), room("B", 5)},
		link{"E", "A"}, link{"A", "B"})
	sim := fill.New(w)
	res, err := sim.Execute(constant(10, 3), 3)
	require.NoError(t, err)

	assert.Equal(t, 0, sim.Frontier().Len())
	a := nodeByID(t, res, "A")
	at, ok := a.CompletedAt()
	require.True(t, ok)
	assert.InDelta(t, 3.0, at, eps)
	assert.InDelta(t, 30.0, a.Filled(), eps)
	assert.InDelta(t, 30.0, a.AmountAt(3), eps)

	samples := a.Samples()
	assert.InDelta(t, 3.0, samples[len(samples)-1].At, eps)

	require.Len(t, res.Unfilled, 2)
	assert.Equal(t, "A", res.Unfilled[0].ID)
	assert.Equal(t, "B", res.Unfilled[1].ID)
	assert.Equal(t, []string{"A"}, res.Unfilled[1].Neighbors)
}

// Every node that was ever activated ends in the ledger with a completion
// time and strictly increasing sample timestamps.
func TestExecute_SaturationClosure(t *testing.T) {
	w := working(t, []venue.Cell{
		entrance("E"), corridor("p", 0), room("a", 35), room("b", 12), room("c", 80), corridor("q", 3),
	}, link{"E", "p"}, link{"p", "a"}, link{"p", "b"}, link{"b", "c"}, link{"c", "q"}, link{"a", "q"})
	series := []float64{7, 13, -4, 25, 0, 40, 3, 60, -20, 9}
	sim := fill.New(w)
	res, err := sim.Execute(series, len(series))
	require.NoError(t, err)

	assert.Equal(t, 0, sim.Frontier().Len())
	for _, n := range res.Nodes {
		at, ok := n.CompletedAt()
		require.True(t, ok, n.ID())
		s := n.Samples()
		require.NotEmpty(t, s, n.ID())
		assert.InDelta(t, at, s[len(s)-1].At, eps, n.ID())
		for i := 1; i < len(s); i++ {
			assert.Greater(t, s[i].At, s[i-1].At, "%s sample %d", n.ID(), i)
		}
	}

	rec := fill.NewReconstructor(res.Nodes)
	for i := 0; i <= 100; i++ {
		assert.LessOrEqual(t, rec.At(float64(i)/10), res.StaticCapacity+eps)
	}
	for _, db := range res.DBC {
		assert.LessOrEqual(t, db, res.StaticCapacity+eps)
		assert.GreaterOrEqual(t, db, 0.0)
	}
}

func TestReconstruct_MonotoneUnderPureInflow(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("a", 17), room("b", 29), room("c", 8)},
		link{"E", "a"}, link{"a", "b"}, link{"b", "c"})
	series := []float64{3, 11, 6, 9, 2, 14, 5}
	res, err := fill.New(w).Execute(series, len(series))
	require.NoError(t, err)

	rec := fill.NewReconstructor(res.Nodes)
	prev := 0.0
	for i := 0; i <= 70; i++ {
		v := rec.At(float64(i) / 10)
		assert.GreaterOrEqual(t, v+eps, prev, "t=%v", float64(i)/10)
		prev = v
	}
	for i := 1; i < len(res.DBC); i++ {
		assert.GreaterOrEqual(t, res.DBC[i]+eps, res.DBC[i-1])
	}
}

func TestTick_RejectsNonPositiveRate(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 10)}, link{"E", "X"})
	sim := fill.New(w)
	_, err := sim.Tick(0, 0, 1)
	assert.ErrorIs(t, err, fill.ErrNonPositiveRate)
	_, err = sim.Tick(0, -2, 1)
	assert.ErrorIs(t, err, fill.ErrNonPositiveRate)
}

func TestTick_ReturnsUnusedTime(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 10)}, link{"E", "X"})
	sim := fill.New(w)

	left, err := sim.Tick(0, 40, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, left, eps)

	left, err = sim.Tick(0.25, 40, 0.75)
	require.NoError(t, err)
	assert.Equal(t, 0.0, left, "nothing left to fill")
	assert.Equal(t, 2, sim.Ledger().Len())
}

func TestExecute_SeriesTooShortAndReuse(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 10)}, link{"E", "X"})
	_, err := fill.New(w).Execute([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, fill.ErrSeriesTooShort)

	sim := fill.New(w)
	_, err = sim.Execute([]float64{1}, 1)
	require.NoError(t, err)
	_, err = sim.Execute([]float64{1}, 1)
	assert.ErrorIs(t, err, fill.ErrAlreadyExecuted)
}

func TestExecute_FractionalTimeStep(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 10)}, link{"E", "X"})
	res, err := fill.New(w, fill.WithTimeStep(0.5)).Execute(constant(10, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 10, 10, 10}, res.DBC)
	assert.InDelta(t, 20.0, res.TotalInflow, eps)
}

// Separate simulator instances over one shared graph do not interfere.
func TestExecute_IndependentInstances(t *testing.T) {
	w := working(t, []venue.Cell{entrance("E"), room("X", 100)}, link{"E", "X"})
	r1, err := fill.New(w).Execute(constant(10, 5), 5)
	require.NoError(t, err)
	r2, err := fill.New(w).Execute(constant(50, 5), 5)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, r1.DBC[4], eps)
	assert.InDelta(t, 100.0, r2.DBC[4], eps)
}
