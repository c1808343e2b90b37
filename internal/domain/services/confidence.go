package services

import (
	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// ConfidenceCalculator derives the per-analysis calibration metrics from the
// final candidate set and the quality of the consulted intelligence. Every
// output is bounded to [0, ceiling]; the system never claims certainty.
type ConfidenceCalculator struct {
	cfg    config.AnalysisConfig
	logger *logger.Logger
}

// NewConfidenceCalculator creates a calculator with the configured ceiling
func NewConfidenceCalculator(cfg config.AnalysisConfig, log *logger.Logger) *ConfidenceCalculator {
	return &ConfidenceCalculator{cfg: cfg, logger: log.WithComponent("confidence_calculator")}
}

// Compute blends average candidate confidence, inter-generator agreement and
// intelligence quality into the final metrics.
func (c *ConfidenceCalculator) Compute(candidates []models.ThreatCandidate, intel *models.IntelSnapshot, signals *models.SignalSet) models.ConfidenceMetrics {
	quality := c.dataQuality(intel)
	completeness := c.completeness(signals)

	if len(candidates) == 0 {
		return models.ConfidenceMetrics{
			DataQualityScore:  quality,
			CompletenessScore: completeness,
		}
	}

	var sum float64
	categories := make(map[string]struct{})
	for i := range candidates {
		sum += candidates[i].Confidence
		categories[candidates[i].Category] = struct{}{}
	}
	avg := sum / float64(len(candidates))

	// Agreement measures how concentrated candidates are in few categories.
	// One candidate per category means every generator saw something
	// different; many candidates per category means they agree.
	agreement := 1.0 - float64(len(categories)-1)/float64(len(candidates))

	overall := capScore(0.5*avg+0.25*agreement+0.25*quality, c.cfg.ConfidenceCeiling)

	return models.ConfidenceMetrics{
		OverallConfidence:  overall,
		GeneratorAgreement: capScore(agreement, c.cfg.ConfidenceCeiling),
		DataQualityScore:   quality,
		CompletenessScore:  completeness,
	}
}

// dataQuality is penalized when external intelligence was unavailable
func (c *ConfidenceCalculator) dataQuality(intel *models.IntelSnapshot) float64 {
	quality := 0.9
	if intel.Empty() {
		quality = 0.6
	}
	if intel != nil && intel.Degraded {
		quality -= 0.1
	}
	return capScore(quality, c.cfg.ConfidenceCeiling)
}

// completeness grows with the richness of the extracted signal set
func (c *ConfidenceCalculator) completeness(signals *models.SignalSet) float64 {
	n := 0
	if signals != nil {
		n = signals.Len()
	}
	if n > 10 {
		n = 10
	}
	return capScore(0.5+0.04*float64(n), c.cfg.ConfidenceCeiling)
}

// ComputeRiskAssessment summarizes the aggregate risk of the final set. The
// overall score blends normalized severity with likelihood on a 0-100 scale.
func ComputeRiskAssessment(candidates []models.ThreatCandidate) models.RiskAssessment {
	var assessment models.RiskAssessment
	assessment.CriticalVulnerabilities = []string{}
	if len(candidates) == 0 {
		return assessment
	}

	var sevSum, likSum float64
	for i := range candidates {
		c := &candidates[i]
		switch c.Severity {
		case models.SeverityCritical:
			assessment.RiskDistribution.Critical++
			assessment.CriticalVulnerabilities = append(assessment.CriticalVulnerabilities, c.Name)
		case models.SeverityHigh:
			assessment.RiskDistribution.High++
		case models.SeverityMedium:
			assessment.RiskDistribution.Medium++
		case models.SeverityLow:
			assessment.RiskDistribution.Low++
		}
		sevSum += float64(models.SeverityRank(c.Severity)) / 4.0
		likSum += c.Likelihood
	}

	n := float64(len(candidates))
	score := 100 * (0.6*sevSum/n + 0.4*likSum/n)
	if score > 100 {
		score = 100
	}
	assessment.OverallRiskScore = score
	return assessment
}
