package generators

import (
	"context"
	"time"

	"threatscope-lab/internal/domain/models"
)

// Input is the shared, read-only input every generator consumes. Generators
// must not mutate any field.
type Input struct {
	Request *models.AnalysisRequest
	Signals *models.SignalSet
	Intel   *models.IntelSnapshot
}

// Generator defines the interface for auxiliary threat-candidate generators
type Generator interface {
	// Slug returns the unique identifier for this generator. It doubles as
	// the candidate provenance name.
	Slug() string

	// Name returns the human-readable name of this generator
	Name() string

	// Deterministic reports whether identical input always yields identical
	// candidates. Non-deterministic generators must flag their output.
	Deterministic() bool

	// IsEnabled returns whether this generator is enabled
	IsEnabled() bool

	// Configure configures the generator with the given config
	Configure(cfg Config) error

	// Generate produces this generator's candidate list for one analysis
	Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error)
}

// Config holds configuration for a generator
type Config struct {
	Enabled bool          `json:"enabled"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultGeneratorConfig returns default generator configuration
func DefaultGeneratorConfig() Config {
	return Config{
		Enabled: true,
		Timeout: 10 * time.Second,
	}
}

// BaseGenerator provides common functionality for generators
type BaseGenerator struct {
	slug          string
	name          string
	deterministic bool
	config        Config
}

// NewBaseGenerator creates a new base generator
func NewBaseGenerator(slug, name string, deterministic bool) *BaseGenerator {
	return &BaseGenerator{
		slug:          slug,
		name:          name,
		deterministic: deterministic,
		config:        DefaultGeneratorConfig(),
	}
}

// Slug returns the unique identifier for this generator
func (g *BaseGenerator) Slug() string {
	return g.slug
}

// Name returns the human-readable name of this generator
func (g *BaseGenerator) Name() string {
	return g.name
}

// Deterministic reports whether this generator is deterministic
func (g *BaseGenerator) Deterministic() bool {
	return g.deterministic
}

// IsEnabled returns whether this generator is enabled
func (g *BaseGenerator) IsEnabled() bool {
	return g.config.Enabled
}

// Configure configures the generator
func (g *BaseGenerator) Configure(cfg Config) error {
	g.config = cfg
	return nil
}

// Config returns the current configuration
func (g *BaseGenerator) Config() Config {
	return g.config
}
