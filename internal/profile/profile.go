// Package profile generates per-minute inflow series for the simulator.
//
// A profile yields separate entry and exit rates (persons per minute); the
// simulator consumes their difference. Builders are looked up by kind in a
// Registry so new shapes can be added without touching callers.
package profile

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
)

// ErrUnknownKind is returned for a profile kind with no registered builder.
var ErrUnknownKind = errors.New("unknown profile kind")

// Flow is the entry and exit rate for each whole minute of a run.
type Flow struct {
	Entry []float64 `json:"entry"`
	Exit  []float64 `json:"exit"`
}

// Net returns entry − exit per minute.
func (f Flow) Net() []float64 {
	out := make([]float64, len(f.Entry))
	for i := range f.Entry {
		out[i] = f.Entry[i]
		if i < len(f.Exit) {
			out[i] -= f.Exit[i]
		}
	}
	return out
}

// Len returns the number of minutes covered.
func (f Flow) Len() int { return len(f.Entry) }

func newFlow(duration int) Flow {
	return Flow{Entry: make([]float64, duration), Exit: make([]float64, duration)}
}

// Builder turns a profile definition into a Flow.
type Builder interface {
	// Kind returns the key this builder is registered under.
	Kind() string
	// Validate checks the definition without building it.
	Validate(def config.ProfileDef) error
	// Build produces duration minutes of flow.
	Build(def config.ProfileDef, duration int) (Flow, error)
}

// WithParam returns a copy of def with one parameter overridden.
func WithParam(def config.ProfileDef, key string, value float64) config.ProfileDef {
	params := make(map[string]float64, len(def.Params)+1)
	for k, v := range def.Params {
		params[k] = v
	}
	params[key] = value
	def.Params = params
	return def
}

func param(def config.ProfileDef, key string, fallback float64) float64 {
	if v, ok := def.Params[key]; ok {
		return v
	}
	return fallback
}

func requireParams(def config.ProfileDef, keys ...string) error {
	for _, k := range keys {
		if _, ok := def.Params[k]; !ok {
			return fmt.Errorf("profile %s: %s requires param %q", def.ID, def.Kind, k)
		}
	}
	return nil
}

func lerp(a, b, t float64) float64 { return (1-t)*a + t*b }

// normalize maps x from [lo, hi] onto [0, 1] without clamping.
func normalize(lo, hi, x float64) float64 { return (x - lo) / (hi - lo) }
