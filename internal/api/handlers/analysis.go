package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/internal/domain/services"
	"threatscope-lab/internal/infrastructure/database/repository"
	"threatscope-lab/pkg/logger"
)

// AnalysisHandler handles threat analysis endpoints
type AnalysisHandler struct {
	service *services.AnalysisService
	repo    *repository.AnalysisRepository
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(svc *services.AnalysisService, repo *repository.AnalysisRepository, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: svc,
		repo:    repo,
		logger:  log.WithComponent("analysis_handler"),
	}
}

// Analyze handles POST /api/v1/analysis/analyze-threats
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// QuickAssess handles POST /api/v1/analysis/quick-assessment
func (h *AnalysisHandler) QuickAssess(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.QuickAssess(r.Context(), req)
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/analysis/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "id")
	if analysisID == "" {
		respondError(w, http.StatusBadRequest, "analysis id is required")
		return
	}

	result, err := h.service.GetResult(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, models.ErrResultNotFound) {
			respondError(w, http.StatusNotFound, "analysis result not found")
			return
		}
		h.logger.Warn().Err(err).Str("analysis_id", analysisID).Msg("result lookup failed")
		respondError(w, http.StatusInternalServerError, "failed to load analysis result")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/analysis?threat_model_id=...&limit=...
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis history storage is not configured")
		return
	}

	threatModelID := r.URL.Query().Get("threat_model_id")
	if threatModelID == "" {
		respondError(w, http.StatusBadRequest, "threat_model_id query parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summaries, err := h.repo.ListByThreatModel(r.Context(), threatModelID, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("threat_model_id", threatModelID).Msg("history listing failed")
		respondError(w, http.StatusInternalServerError, "failed to list analysis history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"threat_model_id": threatModelID,
		"count":           len(summaries),
		"analyses":        summaries,
	})
}

func (h *AnalysisHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*models.AnalysisRequest, bool) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func (h *AnalysisHandler) respondAnalysisError(w http.ResponseWriter, err error) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: vErr.Msg,
			Field: vErr.Field,
			Code:  vErr.Code,
		})
	case errors.Is(err, models.ErrPipelineFailure):
		respondError(w, http.StatusInternalServerError, "analysis failed: no generator produced a result")
	default:
		h.logger.Error().Err(err).Msg("analysis request failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
	}
}
