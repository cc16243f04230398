package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stratlab/stratlab/internal/core"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	run_id          TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	start_date      TEXT NOT NULL,
	end_date        TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	payload         TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_user_created ON results(user_id, created_at DESC);
`

// SQLiteStore implements ResultStore backed by a SQLite database. The full
// result is stored as a JSON payload alongside indexed columns for lookup.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a result row. Results are append-only; a duplicate run id
// is an error.
func (s *SQLiteStore) Save(ctx context.Context, userID string, result *core.BacktestResult) error {
	if result.RunID == "" {
		return core.WrapError(core.ErrPersistence, fmt.Errorf("result has no run id"))
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return core.WrapError(core.ErrPersistence, fmt.Errorf("encoding result: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (run_id, user_id, symbol, strategy, start_date, end_date, initial_capital, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		userID,
		result.Symbol,
		result.Strategy,
		result.StartDate.Format(time.RFC3339),
		result.EndDate.Format(time.RFC3339),
		result.InitialCapital,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

// Get retrieves a result by run id.
func (s *SQLiteStore) Get(ctx context.Context, runID string) (*core.BacktestResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM results WHERE run_id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}

	var result core.BacktestResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, core.WrapError(core.ErrPersistence, fmt.Errorf("decoding result: %w", err))
	}
	return &result, nil
}

// ListByUser returns up to limit results for a user, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit int) ([]core.BacktestResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM results
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	defer rows.Close()

	results := make([]core.BacktestResult, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, core.WrapError(core.ErrPersistence, err)
		}
		var result core.BacktestResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, core.WrapError(core.ErrPersistence, fmt.Errorf("decoding result: %w", err))
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return results, nil
}
