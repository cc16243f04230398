package handler

import (
	"net/http"
	"strconv"

	"github.com/stratlab/stratlab/internal/api/response"
	"github.com/stratlab/stratlab/internal/core"
	"github.com/stratlab/stratlab/internal/store"
)

// ResultsHandler serves previously persisted backtest results.
type ResultsHandler struct {
	store store.ResultStore
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(s store.ResultStore) *ResultsHandler {
	return &ResultsHandler{store: s}
}

// Get returns a single result by run id.
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	result, err := h.store.Get(r.Context(), runID)
	if err != nil {
		response.Error(w, response.ErrorStatus(err), err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// List returns a user's results, newest first.
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "anonymous"
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrValidation, err))
			return
		}
		limit = n
	}

	results, err := h.store.ListByUser(r.Context(), userID, limit)
	if err != nil {
		response.Error(w, response.ErrorStatus(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"user":    userID,
		"results": results,
	})
}
