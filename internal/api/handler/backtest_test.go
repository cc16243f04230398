package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stratlab/stratlab/internal/api/response"
	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/engine"
	"github.com/stratlab/stratlab/internal/provider"
	"github.com/stratlab/stratlab/internal/rule"
	"github.com/stratlab/stratlab/internal/store"
)

type downProvider struct{}

func (downProvider) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	return nil, errors.New("feed unreachable")
}

func newTestHandler(t *testing.T, p provider.BarSeriesProvider) (*BacktestHandler, *store.MemoryStore) {
	t.Helper()
	if p == nil {
		p = provider.NewSynthetic(provider.SyntheticConfig{Seed: 1})
	}
	rules := rule.NewRegistry()
	eng := engine.New(p, rules, nil)
	mem := store.NewMemoryStore()
	asm := engine.NewAssembler(mem, nil)
	return NewBacktestHandler(eng, asm, nil, nil), mem
}

func backtestBody(t *testing.T, req BacktestRequest) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func TestBacktestHandler_Run(t *testing.T) {
	h, mem := newTestHandler(t, nil)

	body := backtestBody(t, BacktestRequest{
		Symbol: "AAPL",
		Start:  "2024-01-01",
		End:    "2024-03-01",
		Strategy: core.StrategyConfig{
			Name:         "always-in",
			EntryRules:   []string{"always"},
			PositionSize: 1,
		},
		InitialCapital: 10_000,
	})
	req := httptest.NewRequest("POST", "/api/backtest", body)
	req.Header.Set("X-User-ID", "user-1")
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	runID, _ := data["run_id"].(string)
	if runID == "" {
		t.Fatal("expected run_id in response")
	}
	if data["symbol"] != "AAPL" {
		t.Errorf("expected symbol AAPL, got %v", data["symbol"])
	}

	// The result must be persisted under the caller's user id.
	results, err := mem.ListByUser(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("listing results: %v", err)
	}
	if len(results) != 1 || results[0].RunID != runID {
		t.Errorf("expected persisted run %s for user-1, got %v", runID, results)
	}
}

func TestBacktestHandler_Run_DefaultsAnonymousUser(t *testing.T) {
	h, mem := newTestHandler(t, nil)

	body := backtestBody(t, BacktestRequest{
		Symbol: "AAPL",
		Start:  "2024-01-01",
		End:    "2024-02-01",
		Strategy: core.StrategyConfig{
			EntryRules:   []string{"always"},
			PositionSize: 1,
		},
		InitialCapital: 10_000,
	})
	req := httptest.NewRequest("POST", "/api/backtest", body)
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	results, _ := mem.ListByUser(context.Background(), "anonymous", 0)
	if len(results) != 1 {
		t.Errorf("expected 1 result for anonymous, got %d", len(results))
	}
}

func TestBacktestHandler_Run_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("POST", "/api/backtest", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_Run_InvalidDates(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	body := backtestBody(t, BacktestRequest{
		Symbol: "AAPL",
		Start:  "not-a-date",
		End:    "2024-02-01",
		Strategy: core.StrategyConfig{
			EntryRules:   []string{"always"},
			PositionSize: 1,
		},
		InitialCapital: 10_000,
	})
	req := httptest.NewRequest("POST", "/api/backtest", body)
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_Run_ValidationError(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	body := backtestBody(t, BacktestRequest{
		Symbol: "AAPL",
		Start:  "2024-01-01",
		End:    "2024-02-01",
		Strategy: core.StrategyConfig{
			EntryRules:   []string{"no_such_rule"},
			PositionSize: 1,
		},
		InitialCapital: 10_000,
	})
	req := httptest.NewRequest("POST", "/api/backtest", body)
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "VALIDATION" {
		t.Errorf("expected VALIDATION error code, got %s", resp.Error.Code)
	}
}

func TestBacktestHandler_Run_ProviderUnavailable(t *testing.T) {
	h, _ := newTestHandler(t, downProvider{})

	body := backtestBody(t, BacktestRequest{
		Symbol: "AAPL",
		Start:  "2024-01-01",
		End:    "2024-02-01",
		Strategy: core.StrategyConfig{
			EntryRules:   []string{"always"},
			PositionSize: 1,
		},
		InitialCapital: 10_000,
	})
	req := httptest.NewRequest("POST", "/api/backtest", body)
	w := httptest.NewRecorder()

	h.Run(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var resp response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "PROVIDER_UNAVAILABLE" {
		t.Errorf("expected PROVIDER_UNAVAILABLE, got %s", resp.Error.Code)
	}
}
