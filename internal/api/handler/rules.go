package handler

import (
	"net/http"

	"github.com/stratlab/stratlab/internal/api/response"
	"github.com/stratlab/stratlab/internal/rule"
)

// RulesHandler serves the catalog of registered rule ids.
type RulesHandler struct {
	rules *rule.Registry
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(rules *rule.Registry) *RulesHandler {
	return &RulesHandler{rules: rules}
}

// List returns all registered rule ids in sorted order.
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"rules": h.rules.IDs(),
	})
}
