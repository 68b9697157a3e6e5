package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/dbc/internal/api"
	"github.com/gyaneshwarpardhi/dbc/internal/config"
	"github.com/gyaneshwarpardhi/dbc/internal/engine"
	"github.com/gyaneshwarpardhi/dbc/internal/metrics"
	"github.com/gyaneshwarpardhi/dbc/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/venue.yaml", "Path to venue YAML config")
	dbPath := flag.String("db", "", "SQLite run store (overrides store.path; empty keeps the config value)")
	debug := flag.Bool("debug", false, "Log every fill promotion")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Resolve venue ────────────────────────────────────────────────────────
	v, err := engine.Load(cfg)
	if err != nil {
		slog.Error("failed to build venue", "err", err)
		os.Exit(1)
	}

	// ── Run store ────────────────────────────────────────────────────────────
	path := cfg.Store.Path
	if *dbPath != "" {
		path = *dbPath
	}
	var st *store.Store
	if path != "" {
		st, err = store.Open(path)
		if err != nil {
			slog.Error("failed to open run store", "path", path, "err", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("run store opened", "path", path)
	} else {
		slog.Warn("no store path configured, run history disabled")
	}

	// ── Engine ───────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, v, cfg.Engine, st)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.VenueConfig) {
		nv, err := engine.Load(newCfg)
		if err != nil {
			metrics.VenueReloads.WithLabelValues("error").Inc()
			slog.Warn("hot-reload skipped: venue invalid", "err", err)
			return
		}
		eng.SwapVenue(nv)
		metrics.VenueReloads.WithLabelValues("success").Inc()
		slog.Info("venue hot-reloaded", "working_cells", nv.Working.Graph.CellCount())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(eng, loader, st)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.RunTimeoutMs)*time.Millisecond + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	eng.Shutdown()
	slog.Info("goodbye")
}
