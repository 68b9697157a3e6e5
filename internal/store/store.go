// Package store persists simulation runs and their DBC series in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/dbc/internal/fill"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

// Run is one persisted simulation.
type Run struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	ProfileID   string              `json:"profile_id,omitempty"`
	ProfileKind string              `json:"profile_kind"`
	Params      map[string]float64  `json:"params,omitempty"`
	Duration    int                 `json:"duration_minutes"`
	TimeStep    float64             `json:"time_step_minutes"`
	Summary     fill.Summary        `json:"summary"`
	Saturated   []string            `json:"saturated,omitempty"`
	Unfilled    []fill.UnfilledCell `json:"unfilled,omitempty"`
	Degenerate  []string            `json:"degenerate_entrances,omitempty"`
	DBC         []float64           `json:"dbc,omitempty"`
}

// detail is the JSON column holding the variable-length parts of a Run
// other than the series.
type detail struct {
	Params     map[string]float64  `json:"params,omitempty"`
	Summary    fill.Summary        `json:"summary"`
	Saturated  []string            `json:"saturated,omitempty"`
	Unfilled   []fill.UnfilledCell `json:"unfilled,omitempty"`
	Degenerate []string            `json:"degenerate,omitempty"`
}

// Store is a SQLite-backed run repository.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		profile_id TEXT,
		profile_kind TEXT NOT NULL,
		duration INTEGER NOT NULL,
		time_step REAL NOT NULL,
		static_capacity REAL NOT NULL,
		total_inflow REAL NOT NULL,
		peak_dbc REAL NOT NULL,
		reaching_minute INTEGER NOT NULL,
		keeping_minutes INTEGER NOT NULL,
		detail JSON NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dbc_series (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (run_id, step),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a run and its series in one transaction.
func (s *Store) Save(ctx context.Context, r *Run) error {
	d, err := json.Marshal(detail{
		Params:     r.Params,
		Summary:    r.Summary,
		Saturated:  r.Saturated,
		Unfilled:   r.Unfilled,
		Degenerate: r.Degenerate,
	})
	if err != nil {
		return fmt.Errorf("failed to encode run detail: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, profile_id, profile_kind, duration, time_step,
			static_capacity, total_inflow, peak_dbc, reaching_minute, keeping_minutes, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CreatedAt.UTC(), nullString(r.ProfileID), r.ProfileKind, r.Duration, r.TimeStep,
		r.Summary.StaticCapacity, r.Summary.TotalInflow, r.Summary.PeakDBC,
		r.Summary.ReachingMinute, r.Summary.KeepingMinutes, string(d))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dbc_series (run_id, step, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare series insert: %w", err)
	}
	defer stmt.Close()
	for i, v := range r.DBC {
		if _, err := stmt.ExecContext(ctx, r.ID, i, v); err != nil {
			return fmt.Errorf("failed to insert series for run %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, created_at, profile_id, profile_kind, duration, time_step, detail`

func scanRun(sc interface{ Scan(...any) error }) (*Run, error) {
	var (
		r         Run
		profileID sql.NullString
		raw       string
		d         detail
	)
	if err := sc.Scan(&r.ID, &r.CreatedAt, &profileID, &r.ProfileKind, &r.Duration, &r.TimeStep, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode detail of run %s: %w", r.ID, err)
	}
	r.ProfileID = profileID.String
	r.Params = d.Params
	r.Summary = d.Summary
	r.Saturated = d.Saturated
	r.Unfilled = d.Unfilled
	r.Degenerate = d.Degenerate
	return &r, nil
}

// Get loads a run including its series.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT value FROM dbc_series WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()
	r.DBC = make([]float64, 0, r.Duration)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		r.DBC = append(r.DBC, v)
	}
	return r, rows.Err()
}

// List returns the most recent runs first, without their series. A
// non-positive limit means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a run and its series.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dbc_series WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete series of run %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
