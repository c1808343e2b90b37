package services

import (
	"fmt"
	"testing"

	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
)

func TestRanker_CompositeScore(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	out := r.Rank([]models.ThreatCandidate{{
		ID:         "threat-1",
		Name:       "One",
		Category:   models.CategoryInjection,
		Severity:   models.SeverityHigh,
		Likelihood: 0.8,
		Confidence: 0.6,
		Provenance: models.ProvenanceRuleEngine,
	}}, 0)

	// 0.3*(3/4) + 0.25*0.8 + 0.25*0.6
	want := 0.3*0.75 + 0.25*0.8 + 0.25*0.6
	if !almostEqual(out[0].CompositeScore, want) {
		t.Errorf("composite: got %v, want %v", out[0].CompositeScore, want)
	}
}

func TestRanker_ProvenanceBonus(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	base := models.ThreatCandidate{
		Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5,
	}
	plain := base
	plain.ID, plain.Name, plain.Category = "a", "A", "cat-a"
	plain.Provenance = models.ProvenanceRuleEngine
	boosted := base
	boosted.ID, boosted.Name, boosted.Category = "b", "B", "cat-b"
	boosted.Provenance = models.ProvenanceEmerging

	out := r.Rank([]models.ThreatCandidate{plain, boosted}, 0)
	if !almostEqual(out[0].CompositeScore-out[1].CompositeScore, 0.05) {
		t.Errorf("emerging bonus: got scores %v and %v", out[0].CompositeScore, out[1].CompositeScore)
	}
	if out[0].ID != "b" {
		t.Errorf("boosted candidate should rank first, got %q", out[0].ID)
	}
}

func TestRanker_DedupKeepsHigherScore(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	weak := models.ThreatCandidate{
		ID: "industry-injection", Name: "SQL Injection", Category: models.CategoryInjection,
		Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5,
		Provenance: models.ProvenanceIndustry,
	}
	strong := models.ThreatCandidate{
		ID: "threat-injection", Name: "SQL Injection", Category: models.CategoryInjection,
		Severity: models.SeverityHigh, Likelihood: 0.8, Confidence: 0.8,
		Provenance: models.ProvenanceRuleEngine,
	}

	out := r.Rank([]models.ThreatCandidate{weak, strong}, 0)
	if len(out) != 1 {
		t.Fatalf("expected dedup to one candidate, got %d", len(out))
	}
	if out[0].ID != "threat-injection" {
		t.Errorf("survivor: got %q, want threat-injection", out[0].ID)
	}
}

func TestRanker_DedupEqualScorePrefersEarlierGenerator(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	later := models.ThreatCandidate{
		ID: "emerging-x", Name: "Same", Category: "cat",
		Severity: models.SeverityMedium, Likelihood: 0.6, Confidence: 0.6,
		Provenance: models.ProvenancePredictive,
	}
	earlier := later
	earlier.ID = "industry-x"
	earlier.Provenance = models.ProvenanceIndustry

	out := r.Rank([]models.ThreatCandidate{later, earlier}, 0)
	if len(out) != 1 {
		t.Fatalf("expected one survivor, got %d", len(out))
	}
	if out[0].Provenance != models.ProvenanceIndustry {
		t.Errorf("survivor provenance: got %q, want industry", out[0].Provenance)
	}
}

func TestRanker_DistinctNamesSameCategoryKept(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	a := models.ThreatCandidate{ID: "a", Name: "Credential Stuffing", Category: models.CategoryBrokenAuthentication,
		Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5, Provenance: models.ProvenanceRuleEngine}
	b := models.ThreatCandidate{ID: "b", Name: "Session Fixation", Category: models.CategoryBrokenAuthentication,
		Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5, Provenance: models.ProvenanceRuleEngine}

	if out := r.Rank([]models.ThreatCandidate{a, b}, 0); len(out) != 2 {
		t.Errorf("distinct names share a category but must both survive, got %d", len(out))
	}
}

func TestRanker_CapAt25(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	var candidates []models.ThreatCandidate
	for i := 0; i < 40; i++ {
		candidates = append(candidates, models.ThreatCandidate{
			ID:       fmt.Sprintf("threat-%02d", i),
			Name:     fmt.Sprintf("Threat %02d", i),
			Category: fmt.Sprintf("cat-%02d", i),
			Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5,
			Provenance: models.ProvenanceRuleEngine,
		})
	}

	if out := r.Rank(candidates, 0); len(out) != 25 {
		t.Errorf("cap: got %d, want 25", len(out))
	}
	if out := r.Rank(candidates, 10); len(out) != 10 {
		t.Errorf("user cap: got %d, want 10", len(out))
	}
	if out := r.Rank(candidates, 100); len(out) != 25 {
		t.Errorf("user cap above system cap: got %d, want 25", len(out))
	}
}

func TestRanker_TieBreakByIDIsStable(t *testing.T) {
	r := NewRanker(config.DefaultAnalysisConfig(), testLogger())

	mk := func(id string) models.ThreatCandidate {
		return models.ThreatCandidate{
			ID: id, Name: id, Category: "cat-" + id,
			Severity: models.SeverityMedium, Likelihood: 0.5, Confidence: 0.5,
			Provenance: models.ProvenanceRuleEngine,
		}
	}

	out := r.Rank([]models.ThreatCandidate{mk("zz"), mk("aa"), mk("mm")}, 0)
	if out[0].ID != "aa" || out[1].ID != "mm" || out[2].ID != "zz" {
		t.Errorf("id tie-break order wrong: %q %q %q", out[0].ID, out[1].ID, out[2].ID)
	}
}
