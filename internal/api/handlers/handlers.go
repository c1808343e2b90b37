package handlers

import (
	"encoding/json"
	"net/http"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/services"
	"threatscope-lab/internal/generators"
	"threatscope-lab/internal/infrastructure/cache"
	"threatscope-lab/internal/infrastructure/database"
	"threatscope-lab/internal/infrastructure/database/repository"
	"threatscope-lab/internal/intel"
	"threatscope-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health       *HealthHandler
	Analysis     *AnalysisHandler
	Capabilities *CapabilitiesHandler
	Rules        *RulesHandler
	Stats        *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Config     config.Config
	Service    *services.AnalysisService
	Ruleset    *services.Ruleset
	Generators *generators.Registry
	Intel      *intel.Registry
	Cache      *cache.RedisCache
	DB         *database.PostgresDB
	Repo       *repository.AnalysisRepository
	Logger     *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(deps.Config.App.Version, deps.Cache, deps.DB, deps.Logger),
		Analysis:     NewAnalysisHandler(deps.Service, deps.Repo, deps.Logger),
		Capabilities: NewCapabilitiesHandler(deps.Config, deps.Generators, deps.Intel, deps.Ruleset),
		Rules:        NewRulesHandler(deps.Ruleset),
		Stats:        NewStatsHandler(deps.Repo, deps.Cache, deps.Logger),
	}
}

// errorResponse is the shared error envelope for all endpoints.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
