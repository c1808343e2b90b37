package generators

import (
	"context"
	"regexp"
	"strings"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// profileEntry is one threat commonly seen in an industry. baseScore drives
// severity after the profile multiplier is applied; confidence is fixed per
// entry and nudged up when external intelligence confirms the category.
type profileEntry struct {
	category    string
	name        string
	description string
	baseScore   float64
	confidence  float64
	references  models.ThreatReferences
}

// industryProfile groups the common threats of one industry with its risk
// multiplier.
type industryProfile struct {
	multiplier float64
	entries    []profileEntry
}

var industryProfiles = map[string]industryProfile{
	"financial": {
		multiplier: 1.15,
		entries: []profileEntry{
			{
				category:    models.CategoryPhishing,
				name:        "Credential Phishing Campaign",
				description: "Financial institutions are primary targets of credential phishing",
				baseScore:   0.8,
				confidence:  0.74,
				references:  models.ThreatReferences{OWASP: []string{"A07:2021"}},
			},
			{
				category:    models.CategoryAPIAbuse,
				name:        "Payment API Abuse",
				description: "Card-testing and enumeration against payment endpoints",
				baseScore:   0.72,
				confidence:  0.7,
			},
			{
				category:    models.CategoryInsiderThreat,
				name:        "Insider Data Access",
				description: "Privileged insiders with access to account and transaction data",
				baseScore:   0.62,
				confidence:  0.64,
			},
		},
	},
	"healthcare": {
		multiplier: 1.15,
		entries: []profileEntry{
			{
				category:    models.CategoryRansomware,
				name:        "Ransomware Against Clinical Systems",
				description: "Availability-critical clinical systems are high-value ransomware targets",
				baseScore:   0.85,
				confidence:  0.76,
				references:  models.ThreatReferences{CWE: []string{"CWE-400"}},
			},
			{
				category:    models.CategorySensitiveDataExposure,
				name:        "Patient Record Exposure",
				description: "Protected health information concentrated in shared systems",
				baseScore:   0.78,
				confidence:  0.72,
				references:  models.ThreatReferences{OWASP: []string{"A02:2021"}},
			},
		},
	},
	"ecommerce": {
		multiplier: 1.1,
		entries: []profileEntry{
			{
				category:    models.CategoryXSS,
				name:        "Checkout Skimming",
				description: "Script injection into checkout flows targeting card data",
				baseScore:   0.75,
				confidence:  0.7,
				references:  models.ThreatReferences{CWE: []string{"CWE-79"}},
			},
			{
				category:    models.CategoryDenialOfService,
				name:        "Seasonal Traffic Flooding",
				description: "Volumetric attacks timed to peak commercial periods",
				baseScore:   0.6,
				confidence:  0.62,
			},
		},
	},
	"technology": {
		multiplier: 1.05,
		entries: []profileEntry{
			{
				category:    models.CategorySupplyChain,
				name:        "Dependency Compromise",
				description: "Compromised upstream packages reaching production builds",
				baseScore:   0.72,
				confidence:  0.68,
				references:  models.ThreatReferences{CWE: []string{"CWE-1357"}},
			},
			{
				category:    models.CategoryAPIAbuse,
				name:        "Token Leakage and Replay",
				description: "Long-lived API tokens leaking through logs and repositories",
				baseScore:   0.65,
				confidence:  0.66,
			},
		},
	},
	"government": {
		multiplier: 1.15,
		entries: []profileEntry{
			{
				category:    models.CategoryAdvancedPersistent,
				name:        "State-Sponsored Intrusion",
				description: "Long-dwell targeted intrusion against public-sector systems",
				baseScore:   0.88,
				confidence:  0.72,
				references:  models.ThreatReferences{External: []string{"https://attack.mitre.org/groups/"}},
			},
			{
				category:    models.CategoryPhishing,
				name:        "Spear Phishing of Officials",
				description: "Targeted phishing against personnel with elevated access",
				baseScore:   0.75,
				confidence:  0.7,
			},
		},
	},
}

// industryAliases folds common naming variants onto a canonical profile key
var industryAliases = map[string]string{
	"finance":            "financial",
	"financial_services": "financial",
	"banking":            "financial",
	"fintech":            "financial",
	"health":             "healthcare",
	"medical":            "healthcare",
	"retail":             "ecommerce",
	"e_commerce":         "ecommerce",
	"saas":               "technology",
	"software":           "technology",
	"public_sector":      "government",
}

// IndustryGenerator maps the business-context industry onto a static profile
// of threats common to that industry.
type IndustryGenerator struct {
	*BaseGenerator
	ceiling float64
	logger  *logger.Logger
}

// NewIndustryGenerator creates the industry-profile generator
func NewIndustryGenerator(ceiling float64, log *logger.Logger) *IndustryGenerator {
	return &IndustryGenerator{
		BaseGenerator: NewBaseGenerator(models.ProvenanceIndustry, "Industry Profile", true),
		ceiling:       ceiling,
		logger:        log.WithGenerator(models.ProvenanceIndustry),
	}
}

// Generate emits one candidate per profile entry for the request's industry.
// An unknown or absent industry yields zero candidates, not an error.
func (g *IndustryGenerator) Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := normalizeIndustry(input.Request.Context.BusinessContext.Industry)
	profile, ok := industryProfiles[key]
	if !ok {
		return nil, nil
	}

	out := make([]models.ThreatCandidate, 0, len(profile.entries))
	for _, entry := range profile.entries {
		severityScore := cap01(entry.baseScore*profile.multiplier, g.ceiling)
		confidence := entry.confidence
		if input.Intel != nil && input.Intel.HasCategory(entry.category) {
			confidence += 0.05
		}
		confidence = cap01(confidence, g.ceiling)

		out = append(out, models.ThreatCandidate{
			ID:              "industry-" + strings.ReplaceAll(entry.category, "_", "-"),
			Name:            entry.name,
			Category:        entry.category,
			Description:     entry.description,
			Severity:        models.SeverityFromConfidence(severityScore),
			Likelihood:      severityScore,
			LikelihoodLevel: models.LikelihoodBucket(severityScore),
			Confidence:      confidence,
			Provenance:      models.ProvenanceIndustry,
			References:      entry.references,
		})
	}
	return out, nil
}

var industrySlugRe = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeIndustry(industry string) string {
	key := strings.ToLower(strings.TrimSpace(industry))
	key = strings.Trim(industrySlugRe.ReplaceAllString(key, "_"), "_")
	if canonical, ok := industryAliases[key]; ok {
		return canonical
	}
	return key
}

// cap01 bounds a score to [0, ceiling]
func cap01(v, ceiling float64) float64 {
	if v < 0 {
		return 0
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
