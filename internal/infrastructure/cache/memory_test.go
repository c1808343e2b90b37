package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(logger.New(logger.Config{Level: "error", Format: "json"}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(id string) *models.AnalysisResult {
	return &models.AnalysisResult{AnalysisID: id, ThreatModelID: "tm-1"}
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k1", result("a-1"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AnalysisID != "a-1" {
		t.Errorf("got %q, want %q", got.AnalysisID, "a-1")
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, models.ErrResultNotFound) {
		t.Errorf("got %v, want ErrResultNotFound", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.Put(ctx, "k1", result("a-1"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); err != nil {
		t.Fatalf("fresh entry must be readable: %v", err)
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := s.Get(ctx, "k1"); !errors.Is(err, models.ErrResultNotFound) {
		t.Errorf("expired entry: got %v, want ErrResultNotFound", err)
	}
}

func TestMemoryStore_NonPositiveTTLNeverExpires(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.Put(ctx, "k1", result("a-1"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s.now = func() time.Time { return base.Add(100 * time.Hour) }
	if _, err := s.Get(ctx, "k1"); err != nil {
		t.Errorf("zero-ttl entry must not expire: %v", err)
	}
}

func TestMemoryStore_Len(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "k1", result("a-1"), time.Hour)
	_ = s.Put(ctx, "k2", result("a-2"), time.Hour)
	_ = s.Put(ctx, "k1", result("a-3"), time.Hour)

	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	s := NewMemoryStore(logger.New(logger.Config{Level: "error", Format: "json"}))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
