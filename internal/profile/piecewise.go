package profile

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dbc/internal/condition"
	"github.com/gyaneshwarpardhi/dbc/internal/config"
)

// Piecewise is a user-described profile: ordered segments, each guarded by
// a condition over t, duration and the profile params. The first segment
// whose condition holds for a minute supplies its rates; a minute matching
// no segment has no flow.
type Piecewise struct{}

func (Piecewise) Kind() string { return "piecewise" }

func (Piecewise) Validate(def config.ProfileDef) error {
	if len(def.Segments) == 0 {
		return fmt.Errorf("profile %s: piecewise profile needs at least one segment", def.ID)
	}
	for i, s := range def.Segments {
		expr, err := condition.Parse(s.When)
		if err != nil {
			return fmt.Errorf("profile %s: segments[%d].when: %w", def.ID, i, err)
		}
		for _, name := range condition.Variables(expr) {
			if name == "t" || name == "duration" {
				continue
			}
			if _, ok := def.Params[name]; !ok {
				return fmt.Errorf("profile %s: segments[%d].when: unknown variable %q", def.ID, i, name)
			}
		}
		for _, r := range []config.RateDef{s.Entry, s.Exit} {
			if r.Value == nil && r.End <= r.Start && (r.From != 0 || r.To != 0) {
				return fmt.Errorf("profile %s: segments[%d]: ramp end must be after start", def.ID, i)
			}
		}
	}
	return nil
}

func (Piecewise) Build(def config.ProfileDef, duration int) (Flow, error) {
	guards := make([]condition.Expr, len(def.Segments))
	for i, s := range def.Segments {
		expr, err := condition.Parse(s.When)
		if err != nil {
			return Flow{}, fmt.Errorf("profile %s: segments[%d].when: %w", def.ID, i, err)
		}
		guards[i] = expr
	}

	env := condition.Vars{"duration": float64(duration)}
	for k, v := range def.Params {
		env[k] = v
	}

	f := newFlow(duration)
	for i := 0; i < duration; i++ {
		t := float64(i)
		env["t"] = t
		for j, g := range guards {
			ok, err := condition.Evaluate(g, env)
			if err != nil {
				return Flow{}, fmt.Errorf("profile %s: segments[%d] at minute %d: %w", def.ID, j, i, err)
			}
			if ok {
				f.Entry[i] = rateAt(def.Segments[j].Entry, t)
				f.Exit[i] = rateAt(def.Segments[j].Exit, t)
				break
			}
		}
	}
	return f, nil
}

// rateAt evaluates a constant or a ramp clamped to its end points.
func rateAt(r config.RateDef, t float64) float64 {
	if r.Value != nil {
		return *r.Value
	}
	if r.End <= r.Start {
		return r.From
	}
	switch {
	case t <= r.Start:
		return r.From
	case t >= r.End:
		return r.To
	}
	return lerp(r.From, r.To, normalize(r.Start, r.End, t))
}
