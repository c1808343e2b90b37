package intel

import (
	"context"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

const staticSlug = "builtin"

// staticRecords is the curated baseline corpus shipped with the process,
// refreshed with each release.
var staticRecords = []models.IntelRecord{
	{
		ID:         "intel-builtin-001",
		Category:   models.CategoryInjection,
		Confidence: 0.9,
		LastSeen:   time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		References: models.ThreatReferences{CWE: []string{"CWE-89"}},
		Provider:   staticSlug,
	},
	{
		ID:         "intel-builtin-002",
		Category:   models.CategoryRansomware,
		Confidence: 0.85,
		LastSeen:   time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		Provider:   staticSlug,
	},
	{
		ID:         "intel-builtin-003",
		Category:   models.CategorySupplyChain,
		Confidence: 0.8,
		LastSeen:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		References: models.ThreatReferences{CWE: []string{"CWE-1357"}},
		Provider:   staticSlug,
	},
	{
		ID:         "intel-builtin-004",
		Category:   models.CategoryPhishing,
		Confidence: 0.82,
		LastSeen:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Provider:   staticSlug,
	},
}

// StaticProvider serves the curated baseline corpus. It never fails and
// involves no I/O, so it is safe as the only provider in offline setups.
type StaticProvider struct {
	enabled bool
	logger  *logger.Logger
}

// NewStaticProvider creates the builtin provider
func NewStaticProvider(log *logger.Logger) *StaticProvider {
	return &StaticProvider{enabled: true, logger: log.WithComponent(staticSlug)}
}

func (p *StaticProvider) Slug() string    { return staticSlug }
func (p *StaticProvider) Name() string    { return "Builtin Corpus" }
func (p *StaticProvider) IsEnabled() bool { return p.enabled }

// SetEnabled sets the enabled state
func (p *StaticProvider) SetEnabled(enabled bool) { p.enabled = enabled }

// Fetch returns the full corpus; filtering by relevance is the consumers'
// concern.
func (p *StaticProvider) Fetch(ctx context.Context, _ *models.AnalysisRequest) ([]models.IntelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.IntelRecord, len(staticRecords))
	copy(out, staticRecords)
	return out, nil
}
