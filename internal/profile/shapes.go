package profile

import (
	"fmt"
	"math"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
)

// Static is a three-phase day: a fixed warm-up inflow, a plateau at max_v
// with a steady trickle out, then pure outflow.
//
// Params: max_v (required), warmup (default 60), warmup_end (120),
// plateau_exit (30), plateau_end (640), drain (120).
type Static struct{}

func (Static) Kind() string { return "static" }

func (Static) Validate(def config.ProfileDef) error {
	return requireParams(def, "max_v")
}

func (Static) Build(def config.ProfileDef, duration int) (Flow, error) {
	var (
		maxV       = param(def, "max_v", 0)
		warmup     = param(def, "warmup", 60)
		warmupEnd  = param(def, "warmup_end", 120)
		trickle    = param(def, "plateau_exit", 30)
		plateauEnd = param(def, "plateau_end", 640)
		drain      = param(def, "drain", 120)
	)
	f := newFlow(duration)
	for i := 0; i < duration; i++ {
		t := float64(i)
		switch {
		case t <= warmupEnd:
			f.Entry[i] = warmup
		case t <= plateauEnd:
			f.Entry[i], f.Exit[i] = maxV, trickle
		default:
			f.Exit[i] = drain
		}
	}
	return f, nil
}

// Sine is a single sine arch over the period: the net rate is
// |max_v·sin(2πt/T)^power|, negated in the second half.
//
// Params: max_v (required), period (default duration), power (default 1).
// The net value is carried entirely on the entry side when positive and on
// the exit side when negative.
type Sine struct{}

func (Sine) Kind() string { return "sine" }

func (Sine) Validate(def config.ProfileDef) error {
	if err := requireParams(def, "max_v"); err != nil {
		return err
	}
	if p, ok := def.Params["period"]; ok && p <= 0 {
		return fmt.Errorf("profile %s: period must be positive", def.ID)
	}
	return nil
}

func (Sine) Build(def config.ProfileDef, duration int) (Flow, error) {
	maxV := param(def, "max_v", 0)
	period := param(def, "period", float64(duration))
	power := param(def, "power", 1)

	f := newFlow(duration)
	for i := 0; i < duration; i++ {
		t := float64(i)
		s := math.Sin(t * 2 * math.Pi / period)
		v := math.Abs(maxV * math.Pow(math.Abs(s), power))
		if t > period/2 {
			f.Exit[i] = v
		} else {
			f.Entry[i] = v
		}
	}
	return f, nil
}

// Staged ramps entry and exit independently through the day. Stage
// boundaries are 120, t2, t2+n, t3, 900 and 960 minutes: entry ramps up to
// max_v by t2, holds for n minutes, then ramps down to zero at 900; exit
// ramps from zero at 120 to max_v at t3, holds until 900, then drains to
// zero at 960. Minutes after 960 carry no flow.
//
// Params: t2, t3, max_v (required), n (default 0).
type Staged struct{}

func (Staged) Kind() string { return "staged" }

func (Staged) Validate(def config.ProfileDef) error {
	if err := requireParams(def, "t2", "t3", "max_v"); err != nil {
		return err
	}
	t2, t3, n := def.Params["t2"], def.Params["t3"], param(def, "n", 0)
	switch {
	case t2 <= 120:
		return fmt.Errorf("profile %s: t2 must be after minute 120, got %v", def.ID, t2)
	case n < 0:
		return fmt.Errorf("profile %s: n must not be negative", def.ID)
	case t2+n >= 900:
		return fmt.Errorf("profile %s: t2+n must end before minute 900", def.ID)
	case t3 <= 120 || t3 > 900:
		return fmt.Errorf("profile %s: t3 must lie in (120, 900], got %v", def.ID, t3)
	}
	return nil
}

func (Staged) Build(def config.ProfileDef, duration int) (Flow, error) {
	var (
		t2   = param(def, "t2", 0)
		t3   = param(def, "t3", 0)
		n    = param(def, "n", 0)
		maxV = param(def, "max_v", 0)
	)
	rampIn := func(t float64) float64 { return lerp(0, maxV, normalize(0, t2, t)) }
	rampDown := func(t float64) float64 { return lerp(maxV, 0, normalize(t2+n, 900, t)) }
	rampOut := func(t float64) float64 { return lerp(0, maxV, normalize(120, t3, t)) }

	f := newFlow(duration)
	for i := 0; i < duration; i++ {
		t := float64(i)
		switch {
		case t <= 120:
			f.Entry[i] = rampIn(t)
		case t <= t2:
			f.Entry[i], f.Exit[i] = rampIn(t), rampOut(t)
		case t <= t2+n:
			f.Entry[i], f.Exit[i] = maxV, rampOut(t)
		case t <= t3:
			f.Entry[i], f.Exit[i] = rampDown(t), rampOut(t)
		case t <= 900:
			f.Entry[i], f.Exit[i] = rampDown(t), maxV
		case t <= 960:
			f.Exit[i] = lerp(maxV, 0, normalize(900, 960, t))
		}
	}
	return f, nil
}
