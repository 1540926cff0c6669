// Package history keeps a bounded log of recently computed routing scenarios
// in a local SQLite database. The log is write-mostly: every successful
// computation appends one row and the oldest rows are evicted past capacity.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arjun/caproute/backend/internal/service"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	destination   TEXT NOT NULL,
	amount        REAL NOT NULL,
	currency      TEXT NOT NULL,
	weight_cost   REAL NOT NULL,
	weight_time   REAL NOT NULL,
	weight_risk   REAL NOT NULL,
	max_hops      INTEGER NOT NULL,
	top_k         INTEGER NOT NULL,
	best_path     TEXT NOT NULL,
	best_score    REAL NOT NULL,
	result_count  INTEGER NOT NULL,
	requested_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scenarios_requested_at ON scenarios (requested_at);
`

// Store is a capacity-bounded scenario log backed by SQLite.
type Store struct {
	db       *sql.DB
	capacity int
}

// Open creates (or opens) the log at path, keeping at most capacity rows.
func Open(path string, capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite handles a single writer; more connections just contend.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db, capacity: capacity}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a scenario and evicts the oldest rows past capacity. The
// append and eviction run in one transaction so a crash never leaves the log
// over capacity with the newest row missing.
func (s *Store) Record(ctx context.Context, sc service.Scenario) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenarios (
			id, source, destination, amount, currency,
			weight_cost, weight_time, weight_risk,
			max_hops, top_k, best_path, best_score, result_count, requested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Source, sc.Destination, sc.Amount, sc.Currency,
		sc.Weights.Cost, sc.Weights.Time, sc.Weights.Risk,
		sc.MaxHops, sc.TopK, sc.BestPath, sc.BestComposite, sc.ResultCount,
		sc.RequestedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert scenario: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM scenarios WHERE id NOT IN (
			SELECT id FROM scenarios ORDER BY requested_at DESC, id DESC LIMIT ?
		)`, s.capacity)
	if err != nil {
		return fmt.Errorf("evict old scenarios: %w", err)
	}

	return tx.Commit()
}

// List returns the retained scenarios, newest first.
func (s *Store) List(ctx context.Context) ([]service.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, destination, amount, currency,
			weight_cost, weight_time, weight_risk,
			max_hops, top_k, best_path, best_score, result_count, requested_at
		FROM scenarios ORDER BY requested_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []service.Scenario
	for rows.Next() {
		var sc service.Scenario
		var requestedAt string
		err := rows.Scan(
			&sc.ID, &sc.Source, &sc.Destination, &sc.Amount, &sc.Currency,
			&sc.Weights.Cost, &sc.Weights.Time, &sc.Weights.Risk,
			&sc.MaxHops, &sc.TopK, &sc.BestPath, &sc.BestComposite, &sc.ResultCount,
			&requestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		sc.RequestedAt, err = time.Parse(time.RFC3339Nano, requestedAt)
		if err != nil {
			return nil, fmt.Errorf("parse scenario timestamp: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// Count reports the number of retained scenarios.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scenarios: %w", err)
	}
	return n, nil
}

var _ service.ScenarioRecorder = (*Store)(nil)
