package handlers

import (
	"net/http"

	"threatscope-lab/internal/domain/services"
)

// RulesHandler exposes the active ruleset for inspection
type RulesHandler struct {
	ruleset *services.Ruleset
}

// NewRulesHandler creates a new RulesHandler
func NewRulesHandler(rs *services.Ruleset) *RulesHandler {
	return &RulesHandler{ruleset: rs}
}

// List handles GET /api/v1/rules
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	rules := h.ruleset.Rules()
	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(rules),
		"rules": rules,
	})
}

// ListChains handles GET /api/v1/rules/chains
func (h *RulesHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	chains := h.ruleset.Chains()
	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(chains),
		"chains": chains,
	})
}
