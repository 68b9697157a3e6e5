// Command dbc runs one capacity simulation (or a max_v sweep) from a venue
// config and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/dbc/internal/config"
	"github.com/gyaneshwarpardhi/dbc/internal/engine"
	"github.com/gyaneshwarpardhi/dbc/internal/store"
)

func main() {
	cfgPath := flag.String("config", "configs/venue.yaml", "Path to venue YAML config")
	profileID := flag.String("profile", "", "Profile id to run (default: first configured profile)")
	duration := flag.Int("duration", 0, "Simulated minutes (default: simulation.duration_minutes)")
	sweep := flag.String("max-v", "", "Comma-separated max_v values to sweep")
	asJSON := flag.Bool("json", false, "Print JSON instead of the text report")
	dbPath := flag.String("db", "", "Also persist runs to this SQLite file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*cfgPath, *profileID, *duration, *sweep, *dbPath, *asJSON, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dbc:", err)
		os.Exit(1)
	}
}

func run(cfgPath, profileID string, duration int, sweep, dbPath string, asJSON bool, out io.Writer) error {
	loader, err := config.NewLoader(cfgPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	v, err := engine.Load(cfg)
	if err != nil {
		return err
	}
	if profileID == "" {
		if len(cfg.Profiles) == 0 {
			return fmt.Errorf("no profiles configured in %s", cfgPath)
		}
		profileID = cfg.Profiles[0].ID
	}

	var st *store.Store
	if dbPath != "" {
		if st, err = store.Open(dbPath); err != nil {
			return err
		}
		defer st.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := engine.New(ctx, v, cfg.Engine, st)
	defer eng.Shutdown()

	req := engine.Request{ProfileID: profileID, Duration: duration}
	if sweep == "" {
		r, err := eng.Run(ctx, req)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, r)
		}
		printReport(out, r)
		return nil
	}

	values, err := parseFloats(sweep)
	if err != nil {
		return err
	}
	items, err := eng.Sweep(ctx, req, values)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, items)
	}
	for _, it := range items {
		fmt.Fprintf(out, "\n========= Max velocity %g =========\n", it.MaxV)
		if it.Error != "" {
			fmt.Fprintf(out, "failed: %s\n", it.Error)
			continue
		}
		printReport(out, it.Run)
	}
	return nil
}

func printReport(out io.Writer, r *store.Run) {
	s := r.Summary
	fmt.Fprintf(out, "\n========= Dynamic Bearing Capacity Simulation =========\n\n")
	fmt.Fprintf(out, "Run:                     %s (%s/%s)\n", r.ID, r.ProfileKind, r.ProfileID)
	fmt.Fprintf(out, "Static bearing capacity: %g\n", s.StaticCapacity)
	fmt.Fprintf(out, "Total passenger flow:    %d\n", int(s.TotalInflow))
	fmt.Fprintf(out, "Peak DBC:                %d at step %d\n", int(s.PeakDBC), s.PeakMinute)
	if s.ReachingMinute >= 0 {
		fmt.Fprintf(out, "Reaching step:           %d\n", s.ReachingMinute)
		fmt.Fprintf(out, "Keeping steps:           %d\n", s.KeepingMinutes)
		fmt.Fprintf(out, "Entry at reach:          %d / min\n", int(s.EntryAtReach))
		fmt.Fprintf(out, "Exit at reach:           %d / min\n", int(s.ExitAtReach))
	} else {
		fmt.Fprintf(out, "Static bearing capacity never reached.\n")
	}
	if len(r.Degenerate) > 0 {
		fmt.Fprintf(out, "Degenerate entrances:    %s\n", strings.Join(r.Degenerate, ", "))
	}

	series := make([]string, len(r.DBC))
	for i, db := range r.DBC {
		series[i] = strconv.Itoa(int(db))
	}
	fmt.Fprintf(out, "\n====== Dynamic Bearing Capacity ======\n\n[%s]\n", strings.Join(series, ", "))

	if len(r.Unfilled) > 0 {
		fmt.Fprintf(out, "\n====== Not Filled Cells (%d) ======\n\n", len(r.Unfilled))
		for _, c := range r.Unfilled {
			fmt.Fprintf(out, "%s\t%s\t%s\n", c.ID, c.Kind, strings.Join(c.Neighbors, ","))
		}
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid max_v %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
