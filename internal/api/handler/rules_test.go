package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratlab/stratlab/internal/api/response"
	"github.com/stratlab/stratlab/internal/rule"
)

func TestRulesHandler_List(t *testing.T) {
	h := NewRulesHandler(rule.NewRegistry())

	req := httptest.NewRequest("GET", "/api/rules", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	ids := data["rules"].([]any)

	if len(ids) == 0 {
		t.Fatal("expected builtin rules to be listed")
	}

	found := map[string]bool{}
	for _, id := range ids {
		found[id.(string)] = true
	}
	for _, want := range []string{"always", "price_above_sma", "rsi_oversold", "volume_spike"} {
		if !found[want] {
			t.Errorf("expected rule %q in catalog, got %v", want, found)
		}
	}
}
