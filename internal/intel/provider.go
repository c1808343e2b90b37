package intel

import (
	"context"
	"time"

	"threatscope-lab/internal/domain/models"
)

// Provider defines the interface for contextual threat-intelligence sources.
// Providers are network-bound and must honor context cancellation; the
// pipeline treats any failure as "no records from this provider".
type Provider interface {
	// Slug returns the unique identifier for this provider
	Slug() string

	// Name returns the human-readable name of this provider
	Name() string

	// IsEnabled returns whether this provider is enabled
	IsEnabled() bool

	// Fetch retrieves records relevant to the request context
	Fetch(ctx context.Context, req *models.AnalysisRequest) ([]models.IntelRecord, error)
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	Enabled bool          `json:"enabled"`
	FeedURL string        `json:"feed_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultProviderConfig returns default provider configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Enabled: true,
		Timeout: 5 * time.Second,
	}
}
