package handlers

import (
	"net/http"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/internal/domain/services"
	"threatscope-lab/internal/generators"
	"threatscope-lab/internal/intel"
)

// CapabilitiesHandler describes what the analysis engine can do
type CapabilitiesHandler struct {
	config     config.Config
	generators *generators.Registry
	intel      *intel.Registry
	ruleset    *services.Ruleset
}

// NewCapabilitiesHandler creates a new CapabilitiesHandler
func NewCapabilitiesHandler(cfg config.Config, gens *generators.Registry, providers *intel.Registry, rs *services.Ruleset) *CapabilitiesHandler {
	return &CapabilitiesHandler{
		config:     cfg,
		generators: gens,
		intel:      providers,
		ruleset:    rs,
	}
}

// GeneratorInfo describes a registered threat generator
type GeneratorInfo struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Deterministic bool   `json:"deterministic"`
}

// CapabilitiesResponse is the GET /api/v1/capabilities payload
type CapabilitiesResponse struct {
	Version        string          `json:"version"`
	Methodologies  []string        `json:"methodologies"`
	AnalysisDepths []string        `json:"analysis_depths"`
	Generators     []GeneratorInfo `json:"generators"`
	IntelProviders []string        `json:"intel_providers"`
	RuleCount      int             `json:"rule_count"`
	ChainCount     int             `json:"chain_count"`
	MaxThreats     int             `json:"max_threats"`
}

// Get handles GET /api/v1/capabilities
func (h *CapabilitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := CapabilitiesResponse{
		Version: h.config.App.Version,
		Methodologies: []string{
			string(models.MethodologySTRIDE),
			string(models.MethodologyPASTA),
			string(models.MethodologyLINDDUN),
			string(models.MethodologyVAST),
		},
		AnalysisDepths: []string{
			string(models.DepthBasic),
			string(models.DepthStandard),
			string(models.DepthComprehensive),
		},
		MaxThreats: h.config.Analysis.MaxThreats,
	}

	if h.generators != nil {
		for _, gen := range h.generators.ListEnabled() {
			resp.Generators = append(resp.Generators, GeneratorInfo{
				Slug:          gen.Slug(),
				Name:          gen.Name(),
				Deterministic: gen.Deterministic(),
			})
		}
	}

	if h.intel != nil {
		for _, p := range h.intel.ListEnabled() {
			resp.IntelProviders = append(resp.IntelProviders, p.Slug())
		}
	}

	if h.ruleset != nil {
		resp.RuleCount, resp.ChainCount = h.ruleset.Counts()
	}

	respondJSON(w, http.StatusOK, resp)
}
