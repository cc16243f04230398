package store

import (
	"context"
	"sync"

	"github.com/stratlab/stratlab/internal/core"
)

// Compile-time interface check.
var _ ResultStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory ResultStore used in tests and as a default
// when no persistence is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	byRun  map[string]core.BacktestResult
	byUser map[string][]string // run ids in insertion order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRun:  make(map[string]core.BacktestResult),
		byUser: make(map[string][]string),
	}
}

// Save stores a copy of the result.
func (m *MemoryStore) Save(ctx context.Context, userID string, result *core.BacktestResult) error {
	if result.RunID == "" {
		return core.WrapError(core.ErrPersistence, nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRun[result.RunID] = *result
	m.byUser[userID] = append(m.byUser[userID], result.RunID)
	return nil
}

// Get retrieves a result by run id.
func (m *MemoryStore) Get(ctx context.Context, runID string) (*core.BacktestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.byRun[runID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &result, nil
}

// ListByUser returns up to limit results for a user, newest first.
func (m *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]core.BacktestResult, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	results := make([]core.BacktestResult, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, m.byRun[ids[i]])
	}
	return results, nil
}
