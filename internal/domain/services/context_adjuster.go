package services

import (
	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// sensitiveIndustries are the business contexts that raise candidate
// confidence across the board. The lookup is by slug so "Financial Services"
// and "financial" match the same profile.
var sensitiveIndustries = map[string]bool{
	"financial":          true,
	"finance":            true,
	"financial_services": true,
	"banking":            true,
	"fintech":            true,
	"healthcare":         true,
	"health":             true,
	"medical":            true,
	"insurance":          true,
	"government":         true,
}

// ContextAdjuster scales candidate confidence and likelihood by the business
// context. It is a pure function over the candidate list: order-independent
// across candidates and free of hidden state.
type ContextAdjuster struct {
	cfg    config.AnalysisConfig
	logger *logger.Logger
}

// NewContextAdjuster creates an adjuster with the configured multiplier
func NewContextAdjuster(cfg config.AnalysisConfig, log *logger.Logger) *ContextAdjuster {
	return &ContextAdjuster{cfg: cfg, logger: log.WithComponent("context_adjuster")}
}

// Adjust returns a new candidate list with context scaling applied. Scores
// only ever move up, capped at the ceiling; severity is re-derived from the
// adjusted confidence but never downgraded below what the generator set.
func (a *ContextAdjuster) Adjust(candidates []models.ThreatCandidate, bc models.BusinessContext) []models.ThreatCandidate {
	multiplier := 1.0
	if sensitiveIndustries[slugify(bc.Industry)] {
		multiplier = a.cfg.IndustryMultiplier
	}
	if bc.Criticality == "mission_critical" && multiplier < a.cfg.IndustryMultiplier {
		multiplier = a.cfg.IndustryMultiplier
	}
	if multiplier == 1.0 {
		return candidates
	}

	out := make([]models.ThreatCandidate, len(candidates))
	for i, c := range candidates {
		c.Confidence = capScore(c.Confidence*multiplier, a.cfg.ConfidenceCeiling)
		c.Likelihood = capScore(c.Likelihood*multiplier, a.cfg.ConfidenceCeiling)
		c.LikelihoodLevel = models.LikelihoodBucket(c.Likelihood)
		if derived := models.SeverityFromConfidence(c.Confidence); models.SeverityRank(derived) > models.SeverityRank(c.Severity) {
			c.Severity = derived
		}
		out[i] = c
	}

	a.logger.Debug().
		Str("industry", bc.Industry).
		Float64("multiplier", multiplier).
		Int("candidates", len(out)).
		Msg("context adjustment applied")
	return out
}
