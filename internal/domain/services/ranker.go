package services

import (
	"sort"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// Ranker merges the candidate streams of every generator into one ordered,
// bounded list. It is the single place that reconciles heterogeneous
// generators: dedup, composite scoring, deterministic ordering and the cap
// all live here.
type Ranker struct {
	cfg    config.AnalysisConfig
	logger *logger.Logger
}

// NewRanker creates a ranker with the configured weights and cap
func NewRanker(cfg config.AnalysisConfig, log *logger.Logger) *Ranker {
	return &Ranker{cfg: cfg, logger: log.WithComponent("ranker")}
}

// Rank deduplicates, scores, sorts and truncates the merged candidate list.
// maxThreats overrides the configured cap when positive and smaller.
//
// Ordering is total and reproducible: composite score descending, then
// generator priority ascending, then candidate id lexical. On a dedup
// collision with equal scores the candidate from the higher-priority
// generator survives.
func (r *Ranker) Rank(candidates []models.ThreatCandidate, maxThreats int) []models.ThreatCandidate {
	for i := range candidates {
		candidates[i].CompositeScore = r.compositeScore(&candidates[i])
	}

	deduped := r.dedupe(candidates)

	sort.SliceStable(deduped, func(i, j int) bool {
		a, b := &deduped[i], &deduped[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		pa, pb := models.GeneratorPriority(a.Provenance), models.GeneratorPriority(b.Provenance)
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})

	limit := r.cfg.MaxThreats
	if maxThreats > 0 && maxThreats < limit {
		limit = maxThreats
	}
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	r.logger.Debug().
		Int("merged", len(candidates)).
		Int("ranked", len(deduped)).
		Msg("candidates ranked")
	return deduped
}

// compositeScore is the fixed weighted sum over normalized severity,
// likelihood and confidence, plus a small provenance bonus.
func (r *Ranker) compositeScore(c *models.ThreatCandidate) float64 {
	severity := float64(c.SeverityWeight()) / 4.0
	score := r.cfg.Weights.Severity*severity +
		r.cfg.Weights.Likelihood*c.Likelihood +
		r.cfg.Weights.Confidence*c.Confidence
	switch c.Provenance {
	case models.ProvenanceEmerging:
		score += r.cfg.Bonuses.Emerging
	case models.ProvenanceIndustry:
		score += r.cfg.Bonuses.Industry
	}
	return score
}

// dedupe collapses candidates sharing a (category, name) identity, keeping
// the higher composite score. Equal scores keep the candidate from the
// earlier generator in priority order.
func (r *Ranker) dedupe(candidates []models.ThreatCandidate) []models.ThreatCandidate {
	index := make(map[string]int, len(candidates))
	out := make([]models.ThreatCandidate, 0, len(candidates))

	for _, c := range candidates {
		key := c.DedupKey()
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, c)
			continue
		}
		held := &out[at]
		if c.CompositeScore > held.CompositeScore ||
			(c.CompositeScore == held.CompositeScore &&
				models.GeneratorPriority(c.Provenance) < models.GeneratorPriority(held.Provenance)) {
			out[at] = c
		}
	}
	return out
}
