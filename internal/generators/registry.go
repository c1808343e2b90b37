package generators

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// FailureCounter records contained generator failures, labeled by slug.
// Satisfied by the observability metrics.
type FailureCounter interface {
	GeneratorFailure(slug string)
}

// Registry manages all candidate generators
type Registry struct {
	generators map[string]Generator
	mu         sync.RWMutex
	logger     *logger.Logger
	failures   FailureCounter
}

// NewRegistry creates a new generator registry
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		logger:     log.WithComponent("generator-registry"),
	}
}

// SetFailureCounter attaches a counter for contained generator failures.
// Must be called before GenerateAll.
func (r *Registry) SetFailureCounter(c FailureCounter) {
	r.failures = c
}

// Register registers a generator
func (r *Registry) Register(gen Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := gen.Slug()
	if _, exists := r.generators[slug]; exists {
		return fmt.Errorf("generator already registered: %s", slug)
	}

	r.generators[slug] = gen
	r.logger.Info().
		Str("slug", slug).
		Str("name", gen.Name()).
		Bool("deterministic", gen.Deterministic()).
		Msg("registered generator")

	return nil
}

// Get returns a generator by slug
func (r *Registry) Get(slug string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[slug]
	return gen, ok
}

// ListEnabled returns all enabled generators in deterministic priority order
func (r *Registry) ListEnabled() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gens := make([]Generator, 0, len(r.generators))
	for _, gen := range r.generators {
		if gen.IsEnabled() {
			gens = append(gens, gen)
		}
	}
	sort.Slice(gens, func(i, j int) bool {
		pi, pj := models.GeneratorPriority(gens[i].Slug()), models.GeneratorPriority(gens[j].Slug())
		if pi != pj {
			return pi < pj
		}
		return gens[i].Slug() < gens[j].Slug()
	})
	return gens
}

// Count returns the number of registered generators
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generators)
}

// generatorResult carries one generator's output back to the joining caller
type generatorResult struct {
	slug       string
	candidates []models.ThreatCandidate
	err        error
}

// GenerateAll runs every enabled generator concurrently and joins their
// output in generator priority order, so the merged list is deterministic
// regardless of goroutine scheduling.
//
// Each generator is isolated: a panic or error inside one yields zero
// candidates from that generator and never aborts the others. The returned
// failure count tells the caller how degraded the run was.
func (r *Registry) GenerateAll(ctx context.Context, input *Input, timeout time.Duration) ([]models.ThreatCandidate, int) {
	gens := r.ListEnabled()
	if len(gens) == 0 {
		return nil, 0
	}

	results := make(chan generatorResult, len(gens))
	var wg sync.WaitGroup

	for _, gen := range gens {
		wg.Add(1)
		go func(gen Generator) {
			defer wg.Done()
			results <- r.runOne(ctx, gen, input, timeout)
		}(gen)
	}
	wg.Wait()
	close(results)

	bySlug := make(map[string]generatorResult, len(gens))
	for res := range results {
		bySlug[res.slug] = res
	}

	var merged []models.ThreatCandidate
	failures := 0
	for _, gen := range gens {
		res := bySlug[gen.Slug()]
		if res.err != nil {
			failures++
			if r.failures != nil {
				r.failures.GeneratorFailure(res.slug)
			}
			r.logger.Warn().
				Err(res.err).
				Str("generator", res.slug).
				Msg("generator failed, continuing without it")
			continue
		}
		merged = append(merged, res.candidates...)
	}
	return merged, failures
}

// runOne executes a single generator with its own timeout and a panic
// barrier at the boundary.
func (r *Registry) runOne(ctx context.Context, gen Generator, input *Input, timeout time.Duration) (res generatorResult) {
	res.slug = gen.Slug()

	defer func() {
		if rec := recover(); rec != nil {
			res.candidates = nil
			res.err = fmt.Errorf("generator panicked: %v", rec)
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	candidates, err := gen.Generate(ctx, input)
	if err != nil {
		res.err = err
		return res
	}

	// A generator that declares itself non-deterministic must not let its
	// candidates masquerade as reproducible.
	if !gen.Deterministic() {
		for i := range candidates {
			candidates[i].NonDeterministic = true
		}
	}

	r.logger.Debug().
		Str("generator", gen.Slug()).
		Int("candidates", len(candidates)).
		Dur("duration", time.Since(start)).
		Msg("generator completed")

	res.candidates = candidates
	return res
}
