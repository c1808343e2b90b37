package services

import (
	"strings"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// RuleMatcher evaluates every rule of the ruleset against an extracted
// signal set. A rule fires when the fraction of its required signals present
// reaches its threshold; partial matches below the threshold yield nothing.
type RuleMatcher struct {
	ruleset *Ruleset
	cfg     config.AnalysisConfig
	logger  *logger.Logger
}

// NewRuleMatcher creates a matcher over the shared ruleset
func NewRuleMatcher(ruleset *Ruleset, cfg config.AnalysisConfig, log *logger.Logger) *RuleMatcher {
	return &RuleMatcher{
		ruleset: ruleset,
		cfg:     cfg,
		logger:  log.WithComponent("rule_matcher"),
	}
}

// Match returns one candidate per fired rule, in rule-table order. The same
// signal set always yields the same candidates with the same scores.
func (m *RuleMatcher) Match(signals *models.SignalSet) []models.ThreatCandidate {
	var out []models.ThreatCandidate

	for _, rule := range m.ruleset.Rules() {
		matched := make([]string, 0, len(rule.RequiredSignals))
		for _, name := range rule.RequiredSignals {
			if signals.Has(name) {
				matched = append(matched, name)
			}
		}

		ratio := float64(len(matched)) / float64(len(rule.RequiredSignals))
		if ratio < rule.Threshold {
			continue
		}

		confidence := capScore(ratio*rule.BaseWeight, m.cfg.ConfidenceCeiling)
		likelihood := capScore(confidence+m.cfg.SignalLikelihood*float64(signals.Len()), m.cfg.ConfidenceCeiling)

		out = append(out, models.ThreatCandidate{
			ID:              "threat-" + strings.TrimPrefix(rule.ID, "rule-"),
			Name:            rule.Name,
			Category:        rule.Category,
			Description:     rule.Description,
			Severity:        models.SeverityFromConfidence(confidence),
			Likelihood:      likelihood,
			LikelihoodLevel: models.LikelihoodBucket(likelihood),
			Confidence:      confidence,
			MatchedSignals:  matched,
			Provenance:      models.ProvenanceRuleEngine,
			References:      rule.References,
		})
	}

	m.logger.Debug().
		Int("signals", signals.Len()).
		Int("candidates", len(out)).
		Msg("rule matching complete")
	return out
}

// capScore bounds a score to [0, ceiling]
func capScore(v, ceiling float64) float64 {
	if v < 0 {
		return 0
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
