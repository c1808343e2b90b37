package services

import (
	"testing"

	"threatscope-lab/internal/domain/models"
)

func TestRecommender_OnePerCategoryInRankedOrder(t *testing.T) {
	r := NewRecommender(testLogger())

	ranked := []models.ThreatCandidate{
		{Name: "Chain", Category: models.CategoryAdvancedPersistent, Severity: models.SeverityCritical},
		{Name: "SQLi", Category: models.CategoryInjection, Severity: models.SeverityHigh},
		{Name: "SQLi Variant", Category: models.CategoryInjection, Severity: models.SeverityMedium},
		{Name: "Weak Auth", Category: models.CategoryBrokenAuthentication, Severity: models.SeverityMedium},
	}

	recs := r.Recommend(ranked)
	if len(recs) != 3 {
		t.Fatalf("expected one recommendation per category, got %d", len(recs))
	}
	if recs[0].Category != models.CategoryAdvancedPersistent {
		t.Errorf("first recommendation must follow ranking, got %q", recs[0].Category)
	}
	if recs[1].Priority != string(models.SeverityHigh) {
		t.Errorf("priority must come from the highest-ranked finding, got %q", recs[1].Priority)
	}
}

func TestRecommender_UnknownCategoryFallback(t *testing.T) {
	r := NewRecommender(testLogger())

	recs := r.Recommend([]models.ThreatCandidate{
		{Name: "Odd", Category: "quantum_decryption", Severity: models.SeverityLow},
	})
	if len(recs) != 1 {
		t.Fatalf("expected a fallback recommendation, got %d", len(recs))
	}
	if recs[0].Action == "" {
		t.Error("fallback action must not be empty")
	}
}

func TestRecommender_PredictOnlyForecastableCategories(t *testing.T) {
	r := NewRecommender(testLogger())

	preds := r.Predict([]models.ThreatCandidate{
		{Name: "Supply Chain Compromise", Category: models.CategorySupplyChain, Likelihood: 0.8},
		{Name: "SQLi", Category: models.CategoryInjection, Likelihood: 0.9},
	})

	if len(preds) != 1 {
		t.Fatalf("expected one prediction, got %d: %+v", len(preds), preds)
	}
	p := preds[0]
	if p.Category != models.CategorySupplyChain || p.TimeHorizon != "6_months" {
		t.Errorf("prediction: got %+v", p)
	}
	if !almostEqual(p.Probability, 0.72) {
		t.Errorf("probability: got %v, want 0.72", p.Probability)
	}
}

func TestRecommender_PredictEmptyWithoutMatches(t *testing.T) {
	r := NewRecommender(testLogger())
	if preds := r.Predict([]models.ThreatCandidate{{Category: "xss", Likelihood: 0.9}}); len(preds) != 0 {
		t.Errorf("expected no predictions, got %+v", preds)
	}
}
