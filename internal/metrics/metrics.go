package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_runs_submitted_total",
		Help: "Total number of simulation runs placed on the run queue.",
	})

	RunsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_runs_rejected_total",
		Help: "Total number of runs rejected due to a full queue.",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_runs_completed_total",
		Help: "Total number of finished runs, labelled by status.",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbc_run_duration_ms",
		Help:    "Wall-clock simulation time per run in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	CellsSaturated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbc_cells_saturated",
		Help:    "Number of cells saturated by the end of a run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	VenueCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dbc_venue_cells",
		Help: "Cells in the working graph currently loaded.",
	})

	StaticCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dbc_static_capacity_persons",
		Help: "Static bearing capacity of the working graph currently loaded.",
	})

	VenueReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_venue_reloads_total",
		Help: "Venue reload attempts, labelled by status.",
	}, []string{"status"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dbc_queue_utilization_ratio",
		Help: "Current run queue utilization (0–1).",
	})
)
