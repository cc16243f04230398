package engine

import (
	"context"
	"testing"

	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/store"
)

// failingStore always fails Save.
type failingStore struct {
	store.ResultStore
}

func (f *failingStore) Save(ctx context.Context, userID string, result *core.BacktestResult) error {
	return core.WrapError(core.ErrPersistence, nil)
}

func TestAssemble_AssignsRunIDAndPersists(t *testing.T) {
	mem := store.NewMemoryStore()
	a := NewAssembler(mem, nil)

	result := &core.BacktestResult{Symbol: "AAPL", Trades: []core.Trade{}}
	got := a.Assemble(context.Background(), "user-1", result)

	if got != result {
		t.Error("Assemble must return the same result object")
	}
	if got.RunID == "" {
		t.Fatal("Assemble must assign a run id")
	}

	persisted, err := mem.Get(context.Background(), got.RunID)
	if err != nil {
		t.Fatalf("result was not persisted: %v", err)
	}
	if persisted.Symbol != "AAPL" {
		t.Errorf("persisted Symbol = %q, want AAPL", persisted.Symbol)
	}
}

func TestAssemble_PersistenceFailureIsSwallowed(t *testing.T) {
	a := NewAssembler(&failingStore{}, nil)

	result := &core.BacktestResult{Symbol: "AAPL"}
	got := a.Assemble(context.Background(), "user-1", result)

	if got == nil || got.RunID == "" {
		t.Fatal("a failed write must not fail the computed result")
	}
}

type countingRecorder struct {
	failures int
}

func (c *countingRecorder) RecordPersistenceError() { c.failures++ }

func TestAssemble_RecorderNotifiedOnFailure(t *testing.T) {
	rec := &countingRecorder{}
	a := NewAssembler(&failingStore{}, nil).WithRecorder(rec)

	a.Assemble(context.Background(), "user-1", &core.BacktestResult{})

	if rec.failures != 1 {
		t.Errorf("recorder failures = %d, want 1", rec.failures)
	}
}

func TestAssemble_RecorderNotNotifiedOnSuccess(t *testing.T) {
	rec := &countingRecorder{}
	a := NewAssembler(store.NewMemoryStore(), nil).WithRecorder(rec)

	a.Assemble(context.Background(), "user-1", &core.BacktestResult{Trades: []core.Trade{}})

	if rec.failures != 0 {
		t.Errorf("recorder failures = %d, want 0", rec.failures)
	}
}

func TestAssemble_NilStore(t *testing.T) {
	a := NewAssembler(nil, nil)

	got := a.Assemble(context.Background(), "user-1", &core.BacktestResult{})
	if got.RunID == "" {
		t.Error("run id must be assigned even without persistence")
	}
}

func TestAssemble_DistinctRunIDs(t *testing.T) {
	a := NewAssembler(nil, nil)

	first := a.Assemble(context.Background(), "u", &core.BacktestResult{})
	second := a.Assemble(context.Background(), "u", &core.BacktestResult{})
	if first.RunID == second.RunID {
		t.Error("each invocation must get its own run id")
	}
}
