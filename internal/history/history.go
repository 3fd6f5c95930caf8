// Package history persists a ledger of pipeline runs and their stage
// outcomes in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome classifies how a run or stage ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Error      string
}

// StageRecord is one stage execution within a run.
type StageRecord struct {
	RunID    string
	Seq      int
	Stage    string
	Outcome  Outcome
	Duration time.Duration
	Error    string
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and if needed creates) the ledger at dbPath.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS stages (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		stage TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a completed run and its stage records in one
// transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, stages []StageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, outcome, error) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), string(run.Outcome), run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, st := range stages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stages (run_id, seq, stage, outcome, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?)",
			run.ID, st.Seq, st.Stage, string(st.Outcome), st.Duration.Milliseconds(), st.Error,
		)
		if err != nil {
			return fmt.Errorf("insert stage: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, error FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt int64
		var outcome string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &outcome, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0)
		run.FinishedAt = time.Unix(finishedAt, 0)
		run.Outcome = Outcome(outcome)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// StagesFor returns the stage records for a run in execution order.
func (s *Store) StagesFor(ctx context.Context, runID string) ([]StageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, seq, stage, outcome, duration_ms, error FROM stages WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var (
			st         StageRecord
			outcome    string
			durationMS int64
		)
		if err := rows.Scan(&st.RunID, &st.Seq, &st.Stage, &outcome, &durationMS, &st.Error); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Outcome = Outcome(outcome)
		st.Duration = time.Duration(durationMS) * time.Millisecond
		stages = append(stages, st)
	}
	return stages, rows.Err()
}
