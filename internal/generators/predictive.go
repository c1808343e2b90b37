package generators

import (
	"context"
	"strings"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// forecastEntry is one horizon-keyed forecast. Probability decays with the
// horizon; the table is ordered nearest horizon first.
type forecastEntry struct {
	horizon     string
	category    string
	name        string
	description string
	probability float64
	impactScore float64
}

var forecastTable = []forecastEntry{
	{
		horizon:     "6_months",
		category:    models.CategoryAPIAbuse,
		name:        "API Attack Surface Growth",
		description: "New endpoints outpacing authorization review within six months",
		probability: 0.72,
		impactScore: 0.7,
	},
	{
		horizon:     "6_months",
		category:    models.CategoryMisconfiguration,
		name:        "Configuration Drift",
		description: "Infrastructure drift reopening hardened surfaces within six months",
		probability: 0.66,
		impactScore: 0.6,
	},
	{
		horizon:     "12_months",
		category:    models.CategorySupplyChain,
		name:        "Transitive Dependency Exposure",
		description: "Vulnerabilities surfacing in transitive dependencies over the next year",
		probability: 0.6,
		impactScore: 0.8,
	},
	{
		horizon:     "12_months",
		category:    models.CategoryDataPoisoning,
		name:        "Model Integrity Erosion",
		description: "Gradual data-quality decay in learning pipelines over the next year",
		probability: 0.52,
		impactScore: 0.75,
	},
	{
		horizon:     "18_months",
		category:    models.CategoryCryptographicFailure,
		name:        "Deprecated Cryptography Exposure",
		description: "Aging algorithms falling below acceptable strength in the long term",
		probability: 0.55,
		impactScore: 0.85,
	},
}

// PredictiveGenerator emits forecast-style candidates keyed by time horizon.
// It only runs for comprehensive analyses or when the caller opted in to
// predictions.
type PredictiveGenerator struct {
	*BaseGenerator
	ceiling float64
	logger  *logger.Logger
}

// NewPredictiveGenerator creates the predictive generator
func NewPredictiveGenerator(ceiling float64, log *logger.Logger) *PredictiveGenerator {
	return &PredictiveGenerator{
		BaseGenerator: NewBaseGenerator(models.ProvenancePredictive, "Predictive Forecast", true),
		ceiling:       ceiling,
		logger:        log.WithGenerator(models.ProvenancePredictive),
	}
}

// Generate emits every forecast entry clearing the emission floor
func (g *PredictiveGenerator) Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := input.Request
	if req.AnalysisDepth != models.DepthComprehensive && !req.UserPreferences.IncludePredictions {
		return nil, nil
	}

	var out []models.ThreatCandidate
	for _, entry := range forecastTable {
		if entry.probability <= emissionFloor {
			continue
		}

		likelihood := cap01(entry.probability, g.ceiling)
		confidence := cap01(entry.probability*0.9, g.ceiling)

		out = append(out, models.ThreatCandidate{
			ID:              "predictive-" + entry.horizon + "-" + strings.ReplaceAll(entry.category, "_", "-"),
			Name:            entry.name,
			Category:        entry.category,
			Description:     entry.description + " (" + strings.ReplaceAll(entry.horizon, "_", " ") + " horizon)",
			Severity:        models.SeverityFromConfidence(entry.impactScore),
			Likelihood:      likelihood,
			LikelihoodLevel: models.LikelihoodBucket(likelihood),
			Confidence:      confidence,
			Provenance:      models.ProvenancePredictive,
		})
	}
	return out, nil
}
