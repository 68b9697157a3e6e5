// Package fill simulates how a net visitor inflow saturates the working cells
// of a venue, one cell at a time, and reconstructs the dynamic bearing
// capacity (total occupancy) for every simulated step.
//
// Each minute the Simulator promotes the earliest-completed active cell into
// the Ledger, activates its unreached neighbors, and pours the minute's
// inflow into the active cell with the least remaining capacity. A cell that
// saturates part way through a step hands the leftover time to the next cell
// within the same step.
//
// Net outflow (non-positive minutes) is not applied to cells; it only
// decrements the aggregate series. Inflow arriving after such a gap is fed to
// the cells as if the outflow never happened, and inflow arriving while no
// cell is active is lost.
package fill

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

var (
	// ErrNonPositiveRate is returned by Tick for v ≤ 0.
	ErrNonPositiveRate = errors.New("fill: tick rate must be positive")
	// ErrSeriesTooShort is returned when the inflow series does not cover the horizon.
	ErrSeriesTooShort = errors.New("fill: inflow series shorter than horizon")
	// ErrAlreadyExecuted is returned when Execute is called twice on one Simulator.
	ErrAlreadyExecuted = errors.New("fill: simulator already executed")
)

// Simulator owns the mutable fill state of one run. The venue graph is shared
// read-only; build one Simulator per run.
type Simulator struct {
	working  *venue.Working
	step     float64
	logger   *slog.Logger
	frontier *Frontier
	ledger   *Ledger
	executed bool
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithTimeStep sets the length of one series sample in minutes (default 1).
func WithTimeStep(minutes float64) Option {
	return func(s *Simulator) {
		if minutes > 0 {
			s.step = minutes
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New seeds a Simulator: entrances go straight into the Ledger, and every
// non-entrance neighbor of an entrance becomes active. Zero-capacity
// neighbors are pure throughput and start out completed at time 0.
func New(w *venue.Working, opts ...Option) *Simulator {
	s := &Simulator{
		working:  w,
		step:     1,
		logger:   slog.Default(),
		frontier: NewFrontier(),
		ledger:   NewLedger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	g := w.Graph
	for _, id := range w.Entrances {
		s.ledger.Add(newEntranceNode(g.Cell(id)))
	}
	for _, id := range w.Entrances {
		for _, nid := range g.Neighbors(id) {
			n := s.activate(nid)
			if n != nil && n.capacity == 0 {
				n.complete(0)
			}
		}
	}
	return s
}

// Frontier exposes the active set (for inspection).
func (s *Simulator) Frontier() *Frontier { return s.frontier }

// Ledger exposes the completed set (for inspection).
func (s *Simulator) Ledger() *Ledger { return s.ledger }

// activate admits the cell id unless it is already active, completed or was
// seen before. It returns the new node, or nil for a no-op.
func (s *Simulator) activate(id string) *Node {
	if s.ledger.Has(id) || s.frontier.Seen(id) {
		return nil
	}
	c := s.working.Graph.Cell(id)
	if c == nil {
		return nil
	}
	n := newNode(c)
	s.frontier.Add(n)
	return n
}

// promote moves the earliest-completed active node into the Ledger and
// activates its neighbors.
func (s *Simulator) promote() *Node {
	n := s.frontier.EarliestCompleted()
	if n == nil {
		return nil
	}
	n.seal()
	s.frontier.Remove(n.ID())
	s.ledger.Add(n)
	for _, nid := range s.working.Graph.Neighbors(n.ID()) {
		s.activate(nid)
	}
	s.logger.Debug("cell saturated", "cell", n.ID(), "at", n.completedAt)
	return n
}

// Tick pours rate v into the venue for dt minutes starting at t. It returns
// the part of dt left unused when the target cell saturates early; the caller
// should tick again with that leftover at t + (dt − leftover). Zero is
// returned when dt was fully consumed or when no cell can take inflow.
func (s *Simulator) Tick(t, v, dt float64) (float64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrNonPositiveRate, v)
	}
	s.promote()
	if s.frontier.Len() == 0 {
		return 0, nil
	}

	target := s.frontier.ShallowestRemaining()
	if _, done := target.CompletedAt(); done {
		// Awaiting promotion; hand the whole step to the next tick.
		return dt, nil
	}
	remaining := target.Remaining()
	if remaining <= 0 {
		target.complete(t)
		return dt, nil
	}

	timeToFill := remaining / v
	target.record(t, v)
	if timeToFill <= dt {
		target.filled = target.capacity
		target.fillEnd = t + timeToFill
		target.complete(t + timeToFill)
		return dt - timeToFill, nil
	}
	target.filled += dt * v
	target.fillEnd = t + dt
	return 0, nil
}

// Execute runs the simulation over duration minutes of the inflow series
// (one net rate per time step) and reconstructs the occupancy series.
func (s *Simulator) Execute(series []float64, duration int) (*Result, error) {
	if s.executed {
		return nil, ErrAlreadyExecuted
	}
	s.executed = true

	steps := int(float64(duration) / s.step)
	if len(series) < steps {
		return nil, fmt.Errorf("%w: %d samples for %d steps", ErrSeriesTooShort, len(series), steps)
	}

	var inflow float64
	for i := 0; i < steps; i++ {
		v := series[i]
		if v <= 0 {
			continue
		}
		inflow += v * s.step
		start := float64(i) * s.step
		t, dt := start, s.step
		for dt > 0 {
			left, err := s.Tick(t, v, dt)
			if err != nil {
				return nil, fmt.Errorf("at t=%.3f: %w", t, err)
			}
			if left <= 0 || left > dt {
				break
			}
			t = start + (s.step - left)
			dt = left
		}
	}

	horizon := float64(steps) * s.step
	s.closeHorizon(horizon)

	rec := NewReconstructor(s.ledger.Nodes())
	res := &Result{
		Duration:       duration,
		TimeStep:       s.step,
		StaticCapacity: s.working.TotalCapacity,
		TotalInflow:    inflow,
		DBC:            rec.Series(series[:steps], s.step),
		Saturated:      s.saturatedIDs(),
		Unfilled:       s.unfilled(),
		Degenerate:     append([]string(nil), s.working.Degenerate...),
		Nodes:          s.ledger.Nodes(),
	}
	s.logger.Info("simulation finished",
		"steps", steps,
		"saturated", len(res.Saturated),
		"unfilled", len(res.Unfilled),
		"static_capacity", res.StaticCapacity,
	)
	return res, nil
}

// closeHorizon force-completes every node still active at the end of the
// run. Nodes that already saturated keep their completion time; the rest
// complete at the horizon with whatever they hold.
func (s *Simulator) closeHorizon(horizon float64) {
	for s.frontier.Len() > 0 {
		if n := s.frontier.EarliestCompleted(); n != nil {
			n.seal()
			s.frontier.Remove(n.ID())
			s.ledger.Add(n)
			continue
		}
		n := s.frontier.ShallowestRemaining()
		n.complete(horizon)
	}
}

func (s *Simulator) saturatedIDs() []string {
	var out []string
	for _, n := range s.ledger.Nodes() {
		if n.Saturated() {
			out = append(out, n.ID())
		}
	}
	return out
}

func (s *Simulator) unfilled() []UnfilledCell {
	g := s.working.Graph
	var out []UnfilledCell
	for _, c := range g.Cells() {
		if s.working.IsEntrance(c.ID) {
			continue
		}
		if n := s.ledger.Get(c.ID); n != nil && n.Saturated() {
			continue
		}
		out = append(out, UnfilledCell{ID: c.ID, Kind: c.Kind, Neighbors: g.Neighbors(c.ID)})
	}
	return out
}
