package services

import (
	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// CorrelationAnalyzer detects attack chains: combinations of matched threat
// categories that together indicate a higher-order, staged threat. A chain
// fires only when every one of its required categories is present in the
// rule-engine output.
type CorrelationAnalyzer struct {
	ruleset *Ruleset
	cfg     config.AnalysisConfig
	logger  *logger.Logger
}

// NewCorrelationAnalyzer creates an analyzer over the shared ruleset
func NewCorrelationAnalyzer(ruleset *Ruleset, cfg config.AnalysisConfig, log *logger.Logger) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{
		ruleset: ruleset,
		cfg:     cfg,
		logger:  log.WithComponent("correlation_analyzer"),
	}
}

// Analyze returns one synthetic candidate per fired chain. A chain candidate
// always outranks its constituents: severity is pinned to critical,
// likelihood to high, and confidence starts at the chain baseline with the
// boost added on top, capped at the ceiling.
func (a *CorrelationAnalyzer) Analyze(signals *models.SignalSet, matched []models.ThreatCandidate) []models.ThreatCandidate {
	present := make(map[string]bool, len(matched))
	for i := range matched {
		present[matched[i].Category] = true
	}

	var out []models.ThreatCandidate
	for _, chain := range a.ruleset.Chains() {
		if !a.allPresent(chain, present) {
			continue
		}

		confidence := capScore(a.cfg.ChainBaseline+chain.ConfidenceBoost, a.cfg.ConfidenceCeiling)

		out = append(out, models.ThreatCandidate{
			ID:              chain.ID,
			Name:            chain.Name,
			Category:        slugify(chain.Name),
			Description:     chain.Description,
			Severity:        models.SeverityCritical,
			Likelihood:      confidence,
			LikelihoodLevel: models.LikelihoodHigh,
			Confidence:      confidence,
			MatchedSignals:  signals.Names(),
			Provenance:      models.ProvenanceCorrelation,
			References:      chain.References,
		})

		a.logger.Debug().
			Str("chain_id", chain.ID).
			Float64("confidence", confidence).
			Msg("attack chain detected")
	}
	return out
}

// allPresent reports whether every required category of the chain was matched
func (a *CorrelationAnalyzer) allPresent(chain models.AttackChainDefinition, present map[string]bool) bool {
	for _, cat := range chain.RequiredCategories {
		if !present[cat] {
			return false
		}
	}
	return true
}
