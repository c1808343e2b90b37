package intel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// Registry manages all intelligence providers
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
	logger    *logger.Logger
}

// NewRegistry creates a new provider registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    log.WithComponent("intel-registry"),
	}
}

// Register registers a provider
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := p.Slug()
	if _, exists := r.providers[slug]; exists {
		return fmt.Errorf("provider already registered: %s", slug)
	}

	r.providers[slug] = p
	r.logger.Info().
		Str("slug", slug).
		Str("name", p.Name()).
		Msg("registered intel provider")
	return nil
}

// ListEnabled returns enabled providers sorted by slug
func (r *Registry) ListEnabled() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug() < out[j].Slug() })
	return out
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

type providerResult struct {
	slug    string
	records []models.IntelRecord
	err     error
}

// Snapshot consults every enabled provider concurrently and joins whatever
// arrived before the timeout. A failed or timed-out provider contributes
// nothing and marks the snapshot degraded; an empty snapshot is a valid
// result, never an error.
func (r *Registry) Snapshot(ctx context.Context, req *models.AnalysisRequest, timeout time.Duration) *models.IntelSnapshot {
	snapshot := &models.IntelSnapshot{FetchedAt: time.Now().UTC()}

	providers := r.ListEnabled()
	if len(providers) == 0 {
		return snapshot
	}

	results := make(chan providerResult, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			fetchCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			records, err := p.Fetch(fetchCtx, req)
			results <- providerResult{slug: p.Slug(), records: records, err: err}
		}(p)
	}
	wg.Wait()
	close(results)

	bySlug := make(map[string]providerResult, len(providers))
	for res := range results {
		bySlug[res.slug] = res
	}

	for _, p := range providers {
		res := bySlug[p.Slug()]
		if res.err != nil {
			snapshot.Degraded = true
			r.logger.Warn().
				Err(res.err).
				Str("provider", res.slug).
				Msg("intel provider unavailable, continuing without it")
			continue
		}
		snapshot.Records = append(snapshot.Records, res.records...)
		snapshot.Providers = append(snapshot.Providers, res.slug)
	}

	sort.Slice(snapshot.Records, func(i, j int) bool {
		return snapshot.Records[i].ID < snapshot.Records[j].ID
	})

	r.logger.Debug().
		Int("records", len(snapshot.Records)).
		Int("providers", len(snapshot.Providers)).
		Bool("degraded", snapshot.Degraded).
		Msg("intel snapshot assembled")
	return snapshot
}
