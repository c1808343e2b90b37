package services

import (
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// remediationCatalog maps a threat category to its standard control action.
// Categories without an entry fall back to a generic review recommendation.
var remediationCatalog = map[string]string{
	models.CategoryInjection:             "Use parameterized queries and validate all input at trust boundaries",
	models.CategoryBrokenAuthentication:  "Enforce MFA, rotate credentials and harden session management",
	models.CategorySensitiveDataExposure: "Encrypt sensitive data at rest and in transit, minimize retention",
	models.CategoryXSS:                   "Apply context-aware output encoding and a restrictive Content-Security-Policy",
	models.CategoryBrokenAccessControl:   "Centralize authorization checks and deny by default",
	models.CategoryMisconfiguration:      "Harden baseline configuration and disable debug surfaces in production",
	models.CategorySSRF:                  "Validate outbound destinations against an allowlist and block internal ranges",
	models.CategoryCryptographicFailure:  "Replace weak algorithms and manage keys through a vault",
	models.CategoryLoggingFailure:        "Ship security events to centralized, tamper-evident monitoring",
	models.CategoryAPIAbuse:              "Rate-limit API consumers and scope tokens narrowly",
	models.CategorySupplyChain:           "Pin and verify dependencies, monitor advisories for third-party components",
	models.CategoryDenialOfService:       "Add rate limiting, autoscaling headroom and upstream traffic filtering",
	models.CategoryRansomware:            "Maintain offline backups and segment networks to contain lateral movement",
	models.CategoryPhishing:              "Run phishing-resistant authentication and user awareness training",
	models.CategoryInsiderThreat:         "Apply least privilege and monitor for anomalous internal access",
	models.CategoryDataPoisoning:         "Validate and version training data, monitor model drift",
}

// forecastHorizons is the static forecast table: categories with a known
// forward trajectory and the window in which they are expected to matter.
var forecastHorizons = []struct {
	category string
	horizon  string
}{
	{models.CategorySupplyChain, "6_months"},
	{models.CategoryAPIAbuse, "6_months"},
	{models.CategoryDataPoisoning, "12_months"},
	{models.CategoryRansomware, "12_months"},
	{models.CategoryAdvancedPersistent, "18_months"},
}

// Recommender turns the ranked candidate list into control recommendations
// and forward-looking predictions. Both outputs are deterministic functions
// of the final set.
type Recommender struct {
	logger *logger.Logger
}

// NewRecommender creates a recommender
func NewRecommender(log *logger.Logger) *Recommender {
	return &Recommender{logger: log.WithComponent("recommender")}
}

// Recommend emits one recommendation per distinct category, in ranked order,
// so the highest-scored finding drives the top recommendation.
func (r *Recommender) Recommend(candidates []models.ThreatCandidate) []models.Recommendation {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.Recommendation, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if _, dup := seen[c.Category]; dup {
			continue
		}
		seen[c.Category] = struct{}{}

		action, ok := remediationCatalog[c.Category]
		if !ok {
			action = "Review the " + c.Category + " finding and apply compensating controls"
		}
		out = append(out, models.Recommendation{
			Category: c.Category,
			Priority: string(c.Severity),
			Action:   action,
		})
	}
	return out
}

// Predict emits a forecast per table entry whose category appears in the
// final set. Probability tracks the candidate's likelihood, discounted for
// the forecast horizon.
func (r *Recommender) Predict(candidates []models.ThreatCandidate) []models.Prediction {
	byCategory := make(map[string]*models.ThreatCandidate, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if _, ok := byCategory[c.Category]; !ok {
			byCategory[c.Category] = c
		}
	}

	var out []models.Prediction
	for _, f := range forecastHorizons {
		c, ok := byCategory[f.category]
		if !ok {
			continue
		}
		out = append(out, models.Prediction{
			TimeHorizon: f.horizon,
			Category:    f.category,
			Name:        c.Name,
			Probability: capScore(c.Likelihood*0.9, 0.98),
		})
	}
	return out
}
