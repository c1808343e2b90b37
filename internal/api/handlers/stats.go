package handlers

import (
	"net/http"
	"strconv"
	"time"

	"threatscope-lab/internal/infrastructure/cache"
	"threatscope-lab/internal/infrastructure/database/repository"
	"threatscope-lab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	repo   *repository.AnalysisRepository
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(repo *repository.AnalysisRepository, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repo:   repo,
		cache:  c,
		logger: log.WithComponent("stats"),
	}
}

// StatsResponse is the GET /api/v1/stats payload
type StatsResponse struct {
	AnalysesToday    int64            `json:"analyses_today"`
	AnalysesThisWeek int64            `json:"analyses_this_week"`
	Counters         map[string]int64 `json:"counters,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Timestamp: time.Now().UTC()}

	if h.repo != nil {
		now := time.Now().UTC()
		dayStart := now.Truncate(24 * time.Hour)
		weekStart := now.AddDate(0, 0, -7)

		if count, err := h.repo.CountSince(r.Context(), dayStart); err == nil {
			resp.AnalysesToday = count
		} else {
			h.logger.Warn().Err(err).Msg("failed to count daily analyses")
		}
		if count, err := h.repo.CountSince(r.Context(), weekStart); err == nil {
			resp.AnalysesThisWeek = count
		} else {
			h.logger.Warn().Err(err).Msg("failed to count weekly analyses")
		}
	}

	if h.cache != nil {
		if raw, err := h.cache.GetStats(r.Context()); err == nil && len(raw) > 0 {
			resp.Counters = make(map[string]int64, len(raw))
			for field, value := range raw {
				n, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					continue
				}
				resp.Counters[field] = n
			}
		}
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, resp)
}
