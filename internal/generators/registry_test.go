package generators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// fakeGenerator is a configurable test double
type fakeGenerator struct {
	*BaseGenerator
	fn func(ctx context.Context, input *Input) ([]models.ThreatCandidate, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, input *Input) ([]models.ThreatCandidate, error) {
	return g.fn(ctx, input)
}

func emit(id string) func(context.Context, *Input) ([]models.ThreatCandidate, error) {
	return func(context.Context, *Input) ([]models.ThreatCandidate, error) {
		return []models.ThreatCandidate{{ID: id, Name: id, Category: "cat-" + id}}, nil
	}
}

func testInput() *Input {
	return &Input{
		Request: &models.AnalysisRequest{ThreatModelID: "tm-1"},
		Signals: models.NewSignalSet(),
	}
}

func TestRegistry_RejectsDuplicateSlug(t *testing.T) {
	r := NewRegistry(testLogger())
	a := &fakeGenerator{BaseGenerator: NewBaseGenerator("dup", "A", true), fn: emit("a")}
	b := &fakeGenerator{BaseGenerator: NewBaseGenerator("dup", "B", true), fn: emit("b")}

	if err := r.Register(a); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(b); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistry_GenerateAllJoinsInPriorityOrder(t *testing.T) {
	r := NewRegistry(testLogger())

	// Register in reverse priority order
	for _, slug := range []string{
		models.ProvenanceFreeform,
		models.ProvenancePredictive,
		models.ProvenanceEmerging,
		models.ProvenanceIndustry,
	} {
		gen := &fakeGenerator{BaseGenerator: NewBaseGenerator(slug, slug, true), fn: emit(slug)}
		if err := r.Register(gen); err != nil {
			t.Fatalf("register %s: %v", slug, err)
		}
	}

	for run := 0; run < 5; run++ {
		out, failures := r.GenerateAll(context.Background(), testInput(), time.Second)
		if failures != 0 {
			t.Fatalf("unexpected failures: %d", failures)
		}
		want := []string{
			models.ProvenanceIndustry,
			models.ProvenanceEmerging,
			models.ProvenancePredictive,
			models.ProvenanceFreeform,
		}
		if len(out) != len(want) {
			t.Fatalf("candidates: got %d, want %d", len(out), len(want))
		}
		for i, id := range want {
			if out[i].ID != id {
				t.Fatalf("run %d: position %d got %q, want %q", run, i, out[i].ID, id)
			}
		}
	}
}

func TestRegistry_FailingGeneratorCounted(t *testing.T) {
	r := NewRegistry(testLogger())

	ok := &fakeGenerator{BaseGenerator: NewBaseGenerator("ok", "OK", true), fn: emit("x")}
	bad := &fakeGenerator{BaseGenerator: NewBaseGenerator("bad", "Bad", true),
		fn: func(context.Context, *Input) ([]models.ThreatCandidate, error) {
			return nil, errors.New("feed timeout")
		}}
	_ = r.Register(ok)
	_ = r.Register(bad)

	out, failures := r.GenerateAll(context.Background(), testInput(), time.Second)
	if failures != 1 {
		t.Errorf("failures: got %d, want 1", failures)
	}
	if len(out) != 1 || out[0].ID != "x" {
		t.Errorf("surviving output wrong: %+v", out)
	}
}

func TestRegistry_PanicIsContained(t *testing.T) {
	r := NewRegistry(testLogger())

	ok := &fakeGenerator{BaseGenerator: NewBaseGenerator("ok", "OK", true), fn: emit("x")}
	boom := &fakeGenerator{BaseGenerator: NewBaseGenerator("boom", "Boom", true),
		fn: func(context.Context, *Input) ([]models.ThreatCandidate, error) {
			panic("index out of range")
		}}
	_ = r.Register(ok)
	_ = r.Register(boom)

	out, failures := r.GenerateAll(context.Background(), testInput(), time.Second)
	if failures != 1 {
		t.Errorf("failures: got %d, want 1", failures)
	}
	if len(out) != 1 {
		t.Errorf("expected the healthy generator's output, got %+v", out)
	}
}

func TestRegistry_SlowGeneratorTimesOut(t *testing.T) {
	r := NewRegistry(testLogger())

	slow := &fakeGenerator{BaseGenerator: NewBaseGenerator("slow", "Slow", true),
		fn: func(ctx context.Context, _ *Input) ([]models.ThreatCandidate, error) {
			select {
			case <-time.After(5 * time.Second):
				return emit("late")(ctx, nil)
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}}
	_ = r.Register(slow)

	start := time.Now()
	out, failures := r.GenerateAll(context.Background(), testInput(), 50*time.Millisecond)
	if time.Since(start) > time.Second {
		t.Fatal("timeout not enforced")
	}
	if failures != 1 || len(out) != 0 {
		t.Errorf("timed-out generator must count as a failure: out=%v failures=%d", out, failures)
	}
}

func TestRegistry_NonDeterministicFlagStamped(t *testing.T) {
	r := NewRegistry(testLogger())

	nd := &fakeGenerator{BaseGenerator: NewBaseGenerator("nd", "ND", false), fn: emit("y")}
	_ = r.Register(nd)

	out, _ := r.GenerateAll(context.Background(), testInput(), time.Second)
	if len(out) != 1 || !out[0].NonDeterministic {
		t.Errorf("expected NonDeterministic flag, got %+v", out)
	}
}

func TestRegistry_DisabledGeneratorSkipped(t *testing.T) {
	r := NewRegistry(testLogger())

	gen := &fakeGenerator{BaseGenerator: NewBaseGenerator("off", "Off", true), fn: emit("z")}
	_ = gen.Configure(Config{Enabled: false})
	_ = r.Register(gen)

	out, failures := r.GenerateAll(context.Background(), testInput(), time.Second)
	if len(out) != 0 || failures != 0 {
		t.Errorf("disabled generator must contribute nothing: out=%v failures=%d", out, failures)
	}
}

// recordingFailures captures counted failures by slug
type recordingFailures struct {
	mu    sync.Mutex
	slugs []string
}

func (r *recordingFailures) GeneratorFailure(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slugs = append(r.slugs, slug)
}

func TestRegistry_FailureCounterRecordsSlug(t *testing.T) {
	r := NewRegistry(testLogger())
	counter := &recordingFailures{}
	r.SetFailureCounter(counter)

	ok := &fakeGenerator{BaseGenerator: NewBaseGenerator(models.ProvenanceIndustry, "ok", true), fn: emit("ok")}
	bad := &fakeGenerator{
		BaseGenerator: NewBaseGenerator(models.ProvenanceEmerging, "bad", true),
		fn: func(context.Context, *Input) ([]models.ThreatCandidate, error) {
			return nil, errors.New("feed table corrupt")
		},
	}
	if err := r.Register(ok); err != nil {
		t.Fatalf("register ok: %v", err)
	}
	if err := r.Register(bad); err != nil {
		t.Fatalf("register bad: %v", err)
	}

	_, failures := r.GenerateAll(context.Background(), testInput(), time.Second)
	if failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	if len(counter.slugs) != 1 || counter.slugs[0] != models.ProvenanceEmerging {
		t.Errorf("counted slugs = %v, want [%s]", counter.slugs, models.ProvenanceEmerging)
	}
}
