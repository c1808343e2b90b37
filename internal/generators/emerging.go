package generators

import (
	"context"
	"strings"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// emergingEntry is one forward-looking threat from the watch table. A
// candidate is emitted only when probability clears the emission floor;
// severity comes from impactScore via the fixed cutoffs.
type emergingEntry struct {
	category    string
	name        string
	description string
	probability float64
	impactScore float64
	references  models.ThreatReferences
}

// emissionFloor keeps speculative low-probability entries out of results
const emissionFloor = 0.5

var emergingThreats = []emergingEntry{
	{
		category:    models.CategoryDataPoisoning,
		name:        "Training Data Poisoning",
		description: "Manipulated training data degrading model behavior in AI-backed features",
		probability: 0.55,
		impactScore: 0.8,
		references:  models.ThreatReferences{External: []string{"https://atlas.mitre.org/"}},
	},
	{
		category:    models.CategorySupplyChain,
		name:        "Build Pipeline Compromise",
		description: "CI/CD infrastructure abused to inject malicious artifacts",
		probability: 0.65,
		impactScore: 0.9,
		references:  models.ThreatReferences{CWE: []string{"CWE-1357"}},
	},
	{
		category:    models.CategoryAPIAbuse,
		name:        "Automated Credential Stuffing",
		description: "Botnets replaying breached credentials against login APIs",
		probability: 0.7,
		impactScore: 0.7,
		references:  models.ThreatReferences{OWASP: []string{"API2:2023"}},
	},
	{
		category:    models.CategoryRansomware,
		name:        "Double-Extortion Ransomware",
		description: "Encryption combined with exfiltration and publication threats",
		probability: 0.6,
		impactScore: 0.92,
	},
	{
		category:    models.CategoryPhishing,
		name:        "AI-Generated Phishing",
		description: "Machine-generated lures defeating traditional content filters",
		probability: 0.68,
		impactScore: 0.6,
	},
	{
		// Below the emission floor on purpose; kept on the watch table so a
		// future probability bump starts emitting it without a code change.
		category:    models.CategoryInsiderThreat,
		name:        "Contractor Access Abuse",
		description: "Third-party contractors retaining access beyond engagement end",
		probability: 0.45,
		impactScore: 0.65,
	},
}

// EmergingGenerator walks the static watch table of forward-looking threats
type EmergingGenerator struct {
	*BaseGenerator
	ceiling float64
	logger  *logger.Logger
}

// NewEmergingGenerator creates the emerging-threat generator
func NewEmergingGenerator(ceiling float64, log *logger.Logger) *EmergingGenerator {
	return &EmergingGenerator{
		BaseGenerator: NewBaseGenerator(models.ProvenanceEmerging, "Emerging Threats", true),
		ceiling:       ceiling,
		logger:        log.WithGenerator(models.ProvenanceEmerging),
	}
}

// Generate emits every watch-table entry whose probability clears the floor
func (g *EmergingGenerator) Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []models.ThreatCandidate
	for _, entry := range emergingThreats {
		if entry.probability <= emissionFloor {
			continue
		}

		confidence := entry.probability
		if input.Intel != nil && input.Intel.HasCategory(entry.category) {
			confidence += 0.05
		}
		confidence = cap01(confidence, g.ceiling)
		likelihood := cap01(entry.probability, g.ceiling)

		out = append(out, models.ThreatCandidate{
			ID:              "emerging-" + strings.ReplaceAll(entry.category, "_", "-"),
			Name:            entry.name,
			Category:        entry.category,
			Description:     entry.description,
			Severity:        models.SeverityFromConfidence(entry.impactScore),
			Likelihood:      likelihood,
			LikelihoodLevel: models.LikelihoodBucket(likelihood),
			Confidence:      confidence,
			Provenance:      models.ProvenanceEmerging,
			References:      entry.references,
		})
	}
	return out, nil
}
