package services

import (
	"reflect"
	"testing"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
)

func candidateFor(category string) models.ThreatCandidate {
	return models.ThreatCandidate{
		ID:         "threat-" + category,
		Name:       category,
		Category:   category,
		Severity:   models.SeverityMedium,
		Confidence: 0.6,
		Likelihood: 0.6,
		Provenance: models.ProvenanceRuleEngine,
	}
}

func TestCorrelationAnalyzer_ChainFiresWhenAllCategoriesPresent(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	a := NewCorrelationAnalyzer(rs, config.DefaultAnalysisConfig(), testLogger())

	signals := models.NewSignalSet()
	signals.Add(models.SignalKindKeyword, "keyword_sql")
	signals.Add(models.SignalKindKeyword, "keyword_password")

	matched := []models.ThreatCandidate{
		candidateFor(models.CategoryInjection),
		candidateFor(models.CategoryBrokenAuthentication),
		candidateFor(models.CategorySensitiveDataExposure),
	}

	out := a.Analyze(signals, matched)
	if len(out) != 1 {
		t.Fatalf("expected one chain candidate, got %d: %+v", len(out), out)
	}

	c := out[0]
	if c.ID != "chain-apt" {
		t.Errorf("id: got %q, want chain-apt", c.ID)
	}
	if c.Category != models.CategoryAdvancedPersistent {
		t.Errorf("category: got %q, want %q", c.Category, models.CategoryAdvancedPersistent)
	}
	if c.Severity != models.SeverityCritical {
		t.Errorf("severity: got %q, want critical", c.Severity)
	}
	if c.LikelihoodLevel != models.LikelihoodHigh {
		t.Errorf("likelihood level: got %q, want high", c.LikelihoodLevel)
	}
	// baseline 0.85 plus the chain boost 0.08
	if !almostEqual(c.Confidence, 0.93) {
		t.Errorf("confidence: got %v, want 0.93", c.Confidence)
	}
	if !reflect.DeepEqual(c.MatchedSignals, signals.Names()) {
		t.Errorf("matched signals: got %v, want all extracted signals %v", c.MatchedSignals, signals.Names())
	}
	if c.Provenance != models.ProvenanceCorrelation {
		t.Errorf("provenance: got %q", c.Provenance)
	}
}

func TestCorrelationAnalyzer_MissingCategoryNoChain(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	a := NewCorrelationAnalyzer(rs, config.DefaultAnalysisConfig(), testLogger())

	matched := []models.ThreatCandidate{
		candidateFor(models.CategoryInjection),
		candidateFor(models.CategoryBrokenAuthentication),
	}

	if out := a.Analyze(models.NewSignalSet(), matched); len(out) != 0 {
		t.Errorf("expected no chains with a missing category, got %+v", out)
	}
}

func TestCorrelationAnalyzer_MultipleChains(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	a := NewCorrelationAnalyzer(rs, config.DefaultAnalysisConfig(), testLogger())

	matched := []models.ThreatCandidate{
		candidateFor(models.CategoryInjection),
		candidateFor(models.CategoryBrokenAuthentication),
		candidateFor(models.CategorySensitiveDataExposure),
		candidateFor(models.CategoryBrokenAccessControl),
	}

	out := a.Analyze(models.NewSignalSet(), matched)
	ids := make(map[string]bool, len(out))
	for _, c := range out {
		ids[c.ID] = true
	}
	if !ids["chain-apt"] || !ids["chain-data-exfiltration"] {
		t.Errorf("expected chain-apt and chain-data-exfiltration, got %v", ids)
	}
}
