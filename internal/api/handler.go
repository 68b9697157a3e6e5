package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
	"github.com/gyaneshwarpardhi/dbc/internal/engine"
	"github.com/gyaneshwarpardhi/dbc/internal/metrics"
	"github.com/gyaneshwarpardhi/dbc/internal/profile"
	"github.com/gyaneshwarpardhi/dbc/internal/store"
	"github.com/gyaneshwarpardhi/dbc/internal/venue"
)

const (
	maxSweepSize     = 50
	defaultListLimit = 50
)

// Reloader re-reads the venue configuration from its source.
type Reloader interface {
	Reload() (*config.VenueConfig, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader Reloader     // nil disables reload
	store  *store.Store // nil disables run history
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader Reloader, st *store.Store) http.Handler {
	h := &Handler{eng: eng, loader: loader, store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/runs", h.createRun)
	h.mux.HandleFunc("POST /v1/runs/sweep", h.sweep)
	h.mux.HandleFunc("GET /v1/runs", h.listRuns)
	h.mux.HandleFunc("GET /v1/runs/{id}", h.getRun)
	h.mux.HandleFunc("DELETE /v1/runs/{id}", h.deleteRun)
	h.mux.HandleFunc("GET /v1/venue", h.describeVenue)
	h.mux.HandleFunc("POST /v1/venue/reload", h.reloadVenue)
	h.mux.HandleFunc("GET /v1/profiles", h.listProfiles)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/runs: run one simulation synchronously.
func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	run, err := h.eng.Run(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type sweepRequest struct {
	engine.Request
	MaxV []float64 `json:"max_v"`
}

// POST /v1/runs/sweep: one run per max_v value, results in request order.
func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.MaxV) > maxSweepSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("sweep size %d exceeds max %d", len(req.MaxV), maxSweepSize))
		return
	}
	items, err := h.eng.Sweep(r.Context(), req.Request, req.MaxV)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   len(items),
		"failed":  failed,
		"results": items,
	})
}

// GET /v1/runs?limit=N: stored runs, newest first.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
			return
		}
		limit = n
	}
	runs, err := h.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GET /v1/runs/{id}
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	run, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DELETE /v1/runs/{id}
func (h *Handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cellView struct {
	ID        string     `json:"id"`
	Kind      venue.Kind `json:"kind"`
	Capacity  float64    `json:"capacity"`
	Entrance  bool       `json:"entrance,omitempty"`
	Neighbors []string   `json:"neighbors"`
}

// GET /v1/venue: the working graph new runs will use.
func (h *Handler) describeVenue(w http.ResponseWriter, r *http.Request) {
	v := h.eng.Venue()
	g := v.Working.Graph
	cells := make([]cellView, 0, g.CellCount())
	for _, c := range g.Cells() {
		cells = append(cells, cellView{
			ID:        c.ID,
			Kind:      c.Kind,
			Capacity:  c.Capacity,
			Entrance:  v.Working.IsEntrance(c.ID),
			Neighbors: g.Neighbors(c.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"static_capacity":      v.Working.TotalCapacity,
		"entrances":            v.Working.Entrances,
		"degenerate_entrances": v.Working.Degenerate,
		"dropped":              v.Working.Dropped,
		"edges":                g.EdgeCount(),
		"time_step_minutes":    v.TimeStep,
		"duration_minutes":     v.Duration,
		"cells":                cells,
	})
}

// GET /v1/profiles: configured profiles and the kinds a request may use.
func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	v := h.eng.Venue()
	defs := make([]config.ProfileDef, 0, len(v.Profiles))
	for _, p := range v.Profiles {
		defs = append(defs, p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kinds":    h.eng.Profiles().Kinds(),
		"profiles": defs,
	})
}

// POST /v1/venue/reload: hot-reload the venue from disk.
func (h *Handler) reloadVenue(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "venue reload is not configured")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		metrics.VenueReloads.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	v, err := engine.Load(cfg)
	if err != nil {
		metrics.VenueReloads.WithLabelValues("error").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapVenue(v)
	metrics.VenueReloads.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":             true,
		"working_cells":        v.Working.Graph.CellCount(),
		"degenerate_entrances": v.Working.Degenerate,
		"static_capacity":      v.Working.TotalCapacity,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the run queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, engine.ErrUnknownProfile):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidRequest), errors.Is(err, profile.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		// Profile validation failures are plain errors.
		return http.StatusUnprocessableEntity
	}
}
