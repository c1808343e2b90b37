package generators

import (
	"context"
	"strings"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// Scorer produces the confidence and likelihood of a free-form candidate.
// The production default is table-driven and deterministic; tests or an
// experimental model can inject their own implementation. A scorer that is
// not deterministic forces every free-form candidate to be flagged.
type Scorer interface {
	Score(m models.Methodology, input *Input) (confidence, likelihood float64)
	Deterministic() bool
}

// TableScorer is the deterministic default scorer: fixed illustrative values
// per methodology.
type TableScorer struct{}

var methodologyScores = map[models.Methodology][2]float64{
	models.MethodologySTRIDE:  {0.6, 0.62},
	models.MethodologyPASTA:   {0.58, 0.6},
	models.MethodologyLINDDUN: {0.56, 0.58},
	models.MethodologyVAST:    {0.55, 0.57},
}

// Score returns the fixed scores for a methodology
func (TableScorer) Score(m models.Methodology, _ *Input) (float64, float64) {
	if s, ok := methodologyScores[m]; ok {
		return s[0], s[1]
	}
	return 0.5, 0.5
}

// Deterministic always holds for the table scorer
func (TableScorer) Deterministic() bool { return true }

// methodologyThemes name the free-form angle each methodology contributes
var methodologyThemes = map[models.Methodology]struct {
	category    string
	name        string
	description string
}{
	models.MethodologySTRIDE: {
		category:    models.CategoryInsecureDesign,
		name:        "Trust Boundary Spoofing",
		description: "Identity spoofing across undeclared trust boundaries",
	},
	models.MethodologyPASTA: {
		category:    models.CategoryAdvancedPersistent,
		name:        "Attacker-Centric Business Impact",
		description: "Simulated attacker paths against the highest-value business assets",
	},
	models.MethodologyLINDDUN: {
		category:    models.CategorySensitiveDataExposure,
		name:        "Linkability of Personal Data",
		description: "Cross-dataset linkage deanonymizing stored personal data",
	},
	models.MethodologyVAST: {
		category:    models.CategoryMisconfiguration,
		name:        "Pipeline-Scale Misconfiguration",
		description: "Misconfiguration replicated across automated deployment pipelines",
	},
}

// FreeformGenerator produces context-aware, methodology-tagged candidates
// through the pluggable scorer.
type FreeformGenerator struct {
	*BaseGenerator
	scorer  Scorer
	ceiling float64
	logger  *logger.Logger
}

// NewFreeformGenerator creates the free-form generator. Pass nil to use the
// deterministic table scorer.
func NewFreeformGenerator(scorer Scorer, ceiling float64, log *logger.Logger) *FreeformGenerator {
	if scorer == nil {
		scorer = TableScorer{}
	}
	return &FreeformGenerator{
		BaseGenerator: NewBaseGenerator(models.ProvenanceFreeform, "Free-Form Analysis", scorer.Deterministic()),
		scorer:        scorer,
		ceiling:       ceiling,
		logger:        log.WithGenerator(models.ProvenanceFreeform),
	}
}

// Generate emits one candidate for the requested methodology; with none
// requested it defaults to STRIDE.
func (g *FreeformGenerator) Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	methodology := input.Request.Methodology
	if methodology == "" {
		methodology = models.MethodologySTRIDE
	}
	theme, ok := methodologyThemes[methodology]
	if !ok {
		theme = methodologyThemes[models.MethodologySTRIDE]
		methodology = models.MethodologySTRIDE
	}

	confidence, likelihood := g.scorer.Score(methodology, input)
	confidence = cap01(confidence, g.ceiling)
	likelihood = cap01(likelihood, g.ceiling)

	return []models.ThreatCandidate{{
		ID:              "freeform-" + string(methodology) + "-" + strings.ReplaceAll(theme.category, "_", "-"),
		Name:            theme.name + " (" + strings.ToUpper(string(methodology)) + ")",
		Category:        theme.category,
		Description:     theme.description,
		Severity:        models.SeverityFromConfidence(confidence),
		Likelihood:      likelihood,
		LikelihoodLevel: models.LikelihoodBucket(likelihood),
		Confidence:      confidence,
		Provenance:      models.ProvenanceFreeform,
	}}, nil
}
