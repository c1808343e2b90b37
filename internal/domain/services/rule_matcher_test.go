package services

import (
	"math"
	"testing"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRuleMatcher_PartialMatchAboveThreshold(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	m := NewRuleMatcher(rs, config.DefaultAnalysisConfig(), testLogger())

	signals := models.NewSignalSet()
	signals.Add(models.SignalKindKeyword, "keyword_password")
	signals.Add(models.SignalKindKeyword, "keyword_authentication")

	out := m.Match(signals)
	if len(out) != 1 {
		t.Fatalf("expected exactly one candidate, got %d: %+v", len(out), out)
	}

	c := out[0]
	if c.ID != "threat-broken-auth" {
		t.Errorf("id: got %q, want %q", c.ID, "threat-broken-auth")
	}
	if c.Category != models.CategoryBrokenAuthentication {
		t.Errorf("category: got %q", c.Category)
	}

	// 2 of 3 required signals at base weight 0.92
	wantConf := (2.0 / 3.0) * 0.92
	if !almostEqual(c.Confidence, wantConf) {
		t.Errorf("confidence: got %v, want %v", c.Confidence, wantConf)
	}
	// likelihood adds 0.01 per extracted signal
	wantLik := wantConf + 0.01*2
	if !almostEqual(c.Likelihood, wantLik) {
		t.Errorf("likelihood: got %v, want %v", c.Likelihood, wantLik)
	}
	if c.Severity != models.SeverityMedium {
		t.Errorf("severity: got %q, want medium", c.Severity)
	}
	if c.LikelihoodLevel != models.LikelihoodMedium {
		t.Errorf("likelihood level: got %q, want medium", c.LikelihoodLevel)
	}
	if c.Provenance != models.ProvenanceRuleEngine {
		t.Errorf("provenance: got %q", c.Provenance)
	}
}

func TestRuleMatcher_BelowThresholdYieldsNothing(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	m := NewRuleMatcher(rs, config.DefaultAnalysisConfig(), testLogger())

	// 1 of 3 signals is below the 0.6 threshold
	signals := models.NewSignalSet()
	signals.Add(models.SignalKindKeyword, "keyword_password")

	if out := m.Match(signals); len(out) != 0 {
		t.Errorf("expected no candidates, got %+v", out)
	}
}

func TestRuleMatcher_FullMatchCapped(t *testing.T) {
	cfg := config.DefaultAnalysisConfig()
	rs := NewRuleset([]models.RuleDefinition{{
		ID:              "rule-hot",
		Category:        models.CategoryInjection,
		Name:            "Hot Rule",
		RequiredSignals: []string{"keyword_sql"},
		Threshold:       1.0,
		BaseWeight:      1.0,
	}}, nil, testLogger())
	m := NewRuleMatcher(rs, cfg, testLogger())

	signals := models.NewSignalSet()
	signals.Add(models.SignalKindKeyword, "keyword_sql")

	out := m.Match(signals)
	if len(out) != 1 {
		t.Fatalf("expected one candidate, got %d", len(out))
	}
	if out[0].Confidence != cfg.ConfidenceCeiling {
		t.Errorf("confidence not capped: got %v, want %v", out[0].Confidence, cfg.ConfidenceCeiling)
	}
}

func TestRuleMatcher_MatchedSignalsInRuleOrder(t *testing.T) {
	rs := NewDefaultRuleset(testLogger())
	m := NewRuleMatcher(rs, config.DefaultAnalysisConfig(), testLogger())

	// Insert in reverse of the rule's declaration order
	signals := models.NewSignalSet()
	signals.Add(models.SignalKindKeyword, "keyword_login")
	signals.Add(models.SignalKindKeyword, "keyword_password")

	out := m.Match(signals)
	if len(out) != 1 {
		t.Fatalf("expected one candidate, got %d", len(out))
	}
	want := []string{"keyword_password", "keyword_login"}
	got := out[0].MatchedSignals
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("matched signals: got %v, want %v", got, want)
	}
}

func TestRuleset_DropsMalformedRules(t *testing.T) {
	rs := NewRuleset([]models.RuleDefinition{
		{ID: "rule-ok", Category: "x", Name: "OK", RequiredSignals: []string{"a"}, Threshold: 0.5, BaseWeight: 0.5},
		{ID: "rule-bad", Category: "x", Name: "Bad", RequiredSignals: []string{"a"}, Threshold: 1.5, BaseWeight: 0.5},
		{ID: "", Category: "x", Name: "NoID", RequiredSignals: []string{"a"}, Threshold: 0.5, BaseWeight: 0.5},
	}, nil, testLogger())

	rules, _ := rs.Counts()
	if rules != 1 {
		t.Errorf("rules kept: got %d, want 1", rules)
	}
}
