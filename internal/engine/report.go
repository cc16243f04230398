package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/stratlab/stratlab/internal/store"
	"go.uber.org/zap"

	"github.com/stratlab/stratlab/internal/core"
)

// PersistenceRecorder counts failed result writes.
type PersistenceRecorder interface {
	RecordPersistenceError()
}

// Assembler stamps finished results with a run id and hands them to the
// persistence collaborator. Persistence is fire-and-forget: a failed write
// is logged and swallowed, never failing the already-computed result.
type Assembler struct {
	store    store.ResultStore // nil disables persistence
	logger   *zap.Logger
	recorder PersistenceRecorder
}

// NewAssembler creates an Assembler. store may be nil.
func NewAssembler(s store.ResultStore, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{store: s, logger: logger}
}

// WithRecorder registers a recorder notified on failed writes.
func (a *Assembler) WithRecorder(r PersistenceRecorder) *Assembler {
	a.recorder = r
	return a
}

// Assemble assigns a run id, persists the result for the user, and
// returns the result unchanged otherwise.
func (a *Assembler) Assemble(ctx context.Context, userID string, result *core.BacktestResult) *core.BacktestResult {
	result.RunID = uuid.NewString()

	if a.store != nil {
		if err := a.store.Save(ctx, userID, result); err != nil {
			a.logger.Warn("persisting backtest result failed",
				zap.String("run_id", result.RunID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			if a.recorder != nil {
				a.recorder.RecordPersistenceError()
			}
		}
	}

	return result
}
