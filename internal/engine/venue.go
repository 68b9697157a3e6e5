package engine

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

// Venue is everything a run reads from the loaded configuration. It is
// immutable once handed to the engine.
type Venue struct {
	Working  *venue.Working
	Profiles map[string]config.ProfileDef
	TimeStep float64
	Duration int
}

// NewVenue bundles a resolved working graph with the profiles and
// simulation settings of cfg.
func NewVenue(w *venue.Working, cfg *config.VenueConfig) *Venue {
	v := &Venue{
		Working:  w,
		Profiles: make(map[string]config.ProfileDef, len(cfg.Profiles)),
		TimeStep: cfg.Simulation.TimeStepMinutes,
		Duration: cfg.Simulation.DurationMinutes,
	}
	for _, p := range cfg.Profiles {
		v.Profiles[p.ID] = p
	}
	return v
}

// Load validates cfg, builds the cell graph and resolves its working part.
// Degenerate entrances are logged and excluded, never fatal.
func Load(cfg *config.VenueConfig) (*Venue, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	g, err := venue.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build venue graph: %w", err)
	}
	w, err := venue.Resolve(g)
	for _, id := range w.Degenerate {
		slog.Warn("degenerate entrance excluded", "cell", id)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve venue: %w", err)
	}
	slog.Info("venue resolved",
		"cells", g.CellCount(),
		"edges", g.EdgeCount(),
		"working_cells", w.Graph.CellCount(),
		"entrances", len(w.Entrances),
		"dropped", len(w.Dropped),
		"static_capacity", w.TotalCapacity,
	)
	return NewVenue(w, cfg), nil
}
