package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

const (
	feedSlug       = "http_feed"
	feedMaxRecords = 500
)

// feedRecord is the wire shape of one record in the external JSON feed
type feedRecord struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	LastSeen   time.Time `json:"last_seen"`
	CWE        []string  `json:"cwe,omitempty"`
	CVE        []string  `json:"cve,omitempty"`
	OWASP      []string  `json:"owasp,omitempty"`
	External   []string  `json:"external,omitempty"`
}

type feedResponse struct {
	Records []feedRecord `json:"records"`
}

// HTTPFeedProvider pulls contextual records from an external JSON feed. The
// registry bounds every fetch with a timeout; this provider additionally
// caps its own client so a stuck server cannot pin a goroutine.
type HTTPFeedProvider struct {
	client  *http.Client
	logger  *logger.Logger
	enabled bool
	feedURL string
	apiKey  string
}

// NewHTTPFeedProvider creates the feed provider. An empty feed URL leaves
// the provider registered but disabled.
func NewHTTPFeedProvider(cfg ProviderConfig, log *logger.Logger) *HTTPFeedProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderConfig().Timeout
	}
	return &HTTPFeedProvider{
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithComponent(feedSlug),
		enabled: cfg.Enabled && cfg.FeedURL != "",
		feedURL: cfg.FeedURL,
		apiKey:  cfg.APIKey,
	}
}

func (p *HTTPFeedProvider) Slug() string    { return feedSlug }
func (p *HTTPFeedProvider) Name() string    { return "External Threat Feed" }
func (p *HTTPFeedProvider) IsEnabled() bool { return p.enabled }

// Fetch retrieves and decodes the feed
func (p *HTTPFeedProvider) Fetch(ctx context.Context, _ *models.AnalysisRequest) ([]models.IntelRecord, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}

	records := body.Records
	if len(records) > feedMaxRecords {
		records = records[:feedMaxRecords]
	}

	out := make([]models.IntelRecord, 0, len(records))
	for _, r := range records {
		if r.ID == "" || r.Category == "" {
			continue
		}
		out = append(out, models.IntelRecord{
			ID:         r.ID,
			Category:   r.Category,
			Confidence: r.Confidence,
			LastSeen:   r.LastSeen,
			References: models.ThreatReferences{
				CWE:      r.CWE,
				CVE:      r.CVE,
				OWASP:    r.OWASP,
				External: r.External,
			},
			Provider: feedSlug,
		})
	}

	p.logger.Debug().Int("records", len(out)).Msg("feed fetch completed")
	return out, nil
}
