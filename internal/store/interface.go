// Package store persists completed backtest results. Writes are
// append-only and keyed by run id; a failed write never invalidates the
// result already computed.
package store

import (
	"context"

	"github.com/stratlab/stratlab/internal/core"
)

// ResultStore defines the interface for backtest result persistence.
type ResultStore interface {
	// Save persists a result for the given user. The result's RunID must
	// already be set.
	Save(ctx context.Context, userID string, result *core.BacktestResult) error

	// Get retrieves a result by run id.
	Get(ctx context.Context, runID string) (*core.BacktestResult, error)

	// ListByUser returns up to limit results for a user, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]core.BacktestResult, error)
}
