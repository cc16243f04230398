package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/storage/archive"
)

// Compile-time interface check.
var _ ResultStore = (*ArchiveStore)(nil)

// ArchiveStore implements ResultStore on top of blob storage (local
// filesystem or S3). Each result is one JSON object under
// results/<user>/<run_id>.json.
type ArchiveStore struct {
	storage archive.Storage
}

// NewArchiveStore creates a result store backed by the given blob storage.
func NewArchiveStore(storage archive.Storage) *ArchiveStore {
	return &ArchiveStore{storage: storage}
}

func resultPath(userID, runID string) string {
	return fmt.Sprintf("results/%s/%s.json", userID, runID)
}

// Save writes the result JSON to blob storage.
func (a *ArchiveStore) Save(ctx context.Context, userID string, result *core.BacktestResult) error {
	if result.RunID == "" {
		return core.WrapError(core.ErrPersistence, fmt.Errorf("result has no run id"))
	}

	data, err := json.Marshal(result)
	if err != nil {
		return core.WrapError(core.ErrPersistence, fmt.Errorf("encoding result: %w", err))
	}
	if err := a.storage.Write(ctx, resultPath(userID, result.RunID), data); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

// Get scans the results prefix for the run id. Blob listings carry no
// user key, so this is a linear scan over stored paths.
func (a *ArchiveStore) Get(ctx context.Context, runID string) (*core.BacktestResult, error) {
	paths, err := a.storage.List(ctx, "results/")
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}

	suffix := "/" + runID + ".json"
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return a.read(ctx, p)
		}
	}
	return nil, core.ErrNotFound
}

// ListByUser returns up to limit results stored under the user's prefix.
func (a *ArchiveStore) ListByUser(ctx context.Context, userID string, limit int) ([]core.BacktestResult, error) {
	if limit <= 0 {
		limit = 50
	}

	paths, err := a.storage.List(ctx, "results/"+userID+"/")
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}

	results := make([]core.BacktestResult, 0, len(paths))
	for _, p := range paths {
		if len(results) >= limit {
			break
		}
		result, err := a.read(ctx, p)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func (a *ArchiveStore) read(ctx context.Context, path string) (*core.BacktestResult, error) {
	data, err := a.storage.Read(ctx, path)
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	var result core.BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, core.WrapError(core.ErrPersistence, fmt.Errorf("decoding result: %w", err))
	}
	return &result, nil
}
