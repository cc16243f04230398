package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stratlab/stratlab/internal/api/response"
	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/engine"
	"github.com/stratlab/stratlab/internal/metrics"
)

const dateLayout = "2006-01-02"

// BacktestRequest is the request body for running a backtest.
type BacktestRequest struct {
	Symbol         string              `json:"symbol"`
	Start          string              `json:"start"`
	End            string              `json:"end"`
	Strategy       core.StrategyConfig `json:"strategy"`
	InitialCapital float64             `json:"initial_capital"`
}

// BacktestHandler runs backtests synchronously and persists the results.
type BacktestHandler struct {
	engine    *engine.Engine
	assembler *engine.Assembler
	metrics   *metrics.Registry // may be nil
	logger    *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(eng *engine.Engine, asm *engine.Assembler, m *metrics.Registry, logger *zap.Logger) *BacktestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacktestHandler{engine: eng, assembler: asm, metrics: m, logger: logger}
}

// Run executes a backtest and returns the full result.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidation, fmt.Errorf("invalid start date %q: %w", req.Start, err)))
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidation, fmt.Errorf("invalid end date %q: %w", req.End, err)))
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}

	runReq := engine.Request{
		Symbol:         req.Symbol,
		Start:          start,
		End:            end,
		Strategy:       req.Strategy,
		InitialCapital: req.InitialCapital,
	}

	began := time.Now()
	result, err := h.engine.Run(r.Context(), runReq)
	elapsed := time.Since(began).Seconds()

	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordBacktest("error", elapsed, 0)
		}
		h.logger.Warn("backtest failed",
			zap.String("symbol", req.Symbol),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		response.Error(w, response.ErrorStatus(err), err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBacktest("success", elapsed, len(result.Trades))
	}

	result = h.assembler.Assemble(r.Context(), userID, result)

	h.logger.Info("backtest complete",
		zap.String("run_id", result.RunID),
		zap.String("symbol", result.Symbol),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("duration_s", elapsed),
	)

	response.JSON(w, http.StatusOK, result)
}
