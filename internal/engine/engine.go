package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
	"github.com/gyaneshwarpardhi/dbc/internal/fill"
	"github.com/gyaneshwarpardhi/dbc/internal/metrics"
	"github.com/gyaneshwarpardhi/dbc/internal/profile"
	"github.com/gyaneshwarpardhi/dbc/internal/store"
)

var (
	// ErrQueueFull is returned when no run slot is free.
	ErrQueueFull = errors.New("engine: run queue full")
	// ErrUnknownProfile is returned for a profile id missing from the venue config.
	ErrUnknownProfile = errors.New("engine: unknown profile")
	// ErrInvalidRequest is returned for malformed run requests.
	ErrInvalidRequest = errors.New("engine: invalid request")
	// ErrTimeout is returned when a run does not finish within the configured timeout.
	ErrTimeout = errors.New("engine: run timed out")
	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("engine: shut down")
)

// Request describes one simulation run. Exactly one of ProfileID or Profile
// is set; Params override the profile's own params.
type Request struct {
	ProfileID string             `json:"profile_id,omitempty"`
	Profile   *config.ProfileDef `json:"profile,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
	Duration  int                `json:"duration_minutes,omitempty"`
}

// SweepItem is the outcome of one sweep entry.
type SweepItem struct {
	MaxV  float64    `json:"max_v"`
	Run   *store.Run `json:"run,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Engine runs simulations on a bounded worker pool. Every run builds its own
// Simulator over the shared read-only working graph.
type Engine struct {
	venue    atomic.Pointer[Venue]
	profiles *profile.Registry
	store    *store.Store // nil disables persistence
	pool     *workerPool[*runWork, *store.Run]
	conf     config.EngineConf
	logger   *slog.Logger
	closed   atomic.Bool
}

type runWork struct {
	venue *Venue
	def   config.ProfileDef
	dur   int
}

// New creates an Engine using conf and starts the worker pool. st may be nil.
func New(ctx context.Context, v *Venue, conf config.EngineConf, st *store.Store) *Engine {
	e := &Engine{
		profiles: profile.Default(),
		store:    st,
		conf:     conf,
		logger:   slog.Default().With("component", "engine"),
	}
	e.SwapVenue(v)
	e.pool = newWorkerPool[*runWork, *store.Run](ctx, conf.Workers, conf.QueueDepth, e.execute)
	return e
}

// SwapVenue atomically replaces the venue (used on hot-reload). Runs already
// in flight finish on the venue they started with.
func (e *Engine) SwapVenue(v *Venue) {
	e.venue.Store(v)
	metrics.VenueCells.Set(float64(v.Working.Graph.CellCount()))
	metrics.StaticCapacity.Set(v.Working.TotalCapacity)
}

// Venue returns the venue new runs will use.
func (e *Engine) Venue() *Venue {
	return e.venue.Load()
}

// Profiles returns the profile registry.
func (e *Engine) Profiles() *profile.Registry {
	return e.profiles
}

// Run executes one simulation synchronously and returns the stored result.
func (e *Engine) Run(ctx context.Context, req Request) (*store.Run, error) {
	reply, err := e.submit(req)
	if err != nil {
		return nil, err
	}
	return e.await(ctx, reply)
}

// Sweep runs the profile once per max_v value, as in a dangerous-velocity
// search, and returns the outcomes in request order. Entries that could not
// be queued or failed carry an error message instead of a run.
func (e *Engine) Sweep(ctx context.Context, base Request, maxV []float64) ([]SweepItem, error) {
	if len(maxV) == 0 {
		return nil, fmt.Errorf("%w: sweep needs at least one max_v", ErrInvalidRequest)
	}
	items := make([]SweepItem, len(maxV))
	replies := make([]<-chan outcome[*store.Run], len(maxV))
	for i, v := range maxV {
		items[i].MaxV = v
		req := base
		req.Params = withParam(base.Params, "max_v", v)
		reply, err := e.submit(req)
		if err != nil {
			if !errors.Is(err, ErrQueueFull) {
				return nil, err
			}
			items[i].Error = err.Error()
			continue
		}
		replies[i] = reply
	}
	for i, reply := range replies {
		if reply == nil {
			continue
		}
		run, err := e.await(ctx, reply)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			items[i].Error = err.Error()
			continue
		}
		items[i].Run = run
	}
	return items, nil
}

// submit resolves req against the current venue and enqueues it.
func (e *Engine) submit(req Request) (<-chan outcome[*store.Run], error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	v := e.venue.Load()
	def, err := e.resolve(v, req)
	if err != nil {
		return nil, err
	}
	dur := req.Duration
	if dur == 0 {
		dur = v.Duration
	}
	if dur < 0 {
		return nil, fmt.Errorf("%w: duration %d", ErrInvalidRequest, dur)
	}

	reply, ok := e.pool.Submit(&runWork{venue: v, def: def, dur: dur})
	if !ok {
		metrics.RunsRejected.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RunsSubmitted.Inc()
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return reply, nil
}

func (e *Engine) resolve(v *Venue, req Request) (config.ProfileDef, error) {
	var def config.ProfileDef
	switch {
	case req.Profile != nil && req.ProfileID != "":
		return def, fmt.Errorf("%w: set profile_id or profile, not both", ErrInvalidRequest)
	case req.Profile != nil:
		def = *req.Profile
	case req.ProfileID != "":
		p, ok := v.Profiles[req.ProfileID]
		if !ok {
			return def, fmt.Errorf("%w: %q", ErrUnknownProfile, req.ProfileID)
		}
		def = p
	default:
		return def, fmt.Errorf("%w: profile_id or profile is required", ErrInvalidRequest)
	}
	for k, val := range req.Params {
		def = profile.WithParam(def, k, val)
	}
	if err := e.profiles.Validate(def); err != nil {
		return def, err
	}
	return def, nil
}

func (e *Engine) await(ctx context.Context, reply <-chan outcome[*store.Run]) (*store.Run, error) {
	timeout := time.Duration(e.conf.RunTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-reply:
		return out.value, out.err
	case <-timer.C:
		metrics.RunsCompleted.WithLabelValues("timeout").Inc()
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute is the worker body: build the flow, simulate, summarize, persist.
func (e *Engine) execute(ctx context.Context, w *runWork) (*store.Run, error) {
	start := time.Now()
	run, err := e.simulate(w)
	metrics.RunDuration.Observe(float64(time.Since(start).Milliseconds()))
	metrics.QueueUtilization.Set(e.QueueUtilization())
	if err != nil {
		metrics.RunsCompleted.WithLabelValues("error").Inc()
		e.logger.Warn("run failed", "profile", w.def.ID, "kind", w.def.Kind, "err", err)
		return nil, err
	}
	metrics.RunsCompleted.WithLabelValues("success").Inc()
	metrics.CellsSaturated.Observe(float64(len(run.Saturated)))

	if e.store != nil {
		if err := e.store.Save(ctx, run); err != nil {
			// The result is still returned; only persistence failed.
			e.logger.Error("failed to persist run", "run_id", run.ID, "err", err)
		}
	}
	e.logger.Info("run finished",
		"run_id", run.ID,
		"profile", w.def.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"reaching_minute", run.Summary.ReachingMinute,
		"peak_dbc", run.Summary.PeakDBC,
	)
	return run, nil
}

func (e *Engine) simulate(w *runWork) (*store.Run, error) {
	flow, err := e.profiles.Build(w.def, w.dur)
	if err != nil {
		return nil, err
	}
	step := w.venue.TimeStep
	if step <= 0 {
		step = 1
	}
	stepped := profile.Flow{
		Entry: PerStep(flow.Entry, step, w.dur),
		Exit:  PerStep(flow.Exit, step, w.dur),
	}

	sim := fill.New(w.venue.Working, fill.WithTimeStep(step), fill.WithLogger(e.logger))
	res, err := sim.Execute(stepped.Net(), w.dur)
	if err != nil {
		return nil, fmt.Errorf("simulate profile %s: %w", w.def.ID, err)
	}
	return &store.Run{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		ProfileID:   w.def.ID,
		ProfileKind: w.def.Kind,
		Params:      w.def.Params,
		Duration:    w.dur,
		TimeStep:    step,
		Summary:     fill.Summarize(res, stepped.Entry, stepped.Exit),
		Saturated:   res.Saturated,
		Unfilled:    res.Unfilled,
		Degenerate:  res.Degenerate,
		DBC:         res.DBC,
	}, nil
}

// PerStep resamples a per-minute series onto steps of the given length:
// step i takes the value of the minute it starts in.
func PerStep(perMinute []float64, step float64, duration int) []float64 {
	n := int(float64(duration) / step)
	out := make([]float64, n)
	for i := range out {
		m := int(float64(i) * step)
		if m < len(perMinute) {
			out[i] = perMinute[m]
		}
	}
	return out
}

func withParam(params map[string]float64, key string, v float64) map[string]float64 {
	out := make(map[string]float64, len(params)+1)
	for k, val := range params {
		out[k] = val
	}
	out[key] = v
	return out
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool == nil || e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown stops accepting runs and drains the pool.
func (e *Engine) Shutdown() {
	if e.closed.Swap(true) {
		return
	}
	e.pool.Drain()
}
