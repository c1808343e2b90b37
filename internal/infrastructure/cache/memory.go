package cache

import (
	"context"
	"sync"
	"time"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// memoryEntry pairs a stored result with its expiry
type memoryEntry struct {
	result    *models.AnalysisResult
	expiresAt time.Time
}

// MemoryStore is the in-process ResultStore used when Redis is disabled.
// Expired entries are treated as absent on read and swept periodically so
// the map does not grow without bound.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	logger  *logger.Logger
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewMemoryStore creates an in-memory result store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		logger:  log.WithComponent("memory-cache"),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.sweep(time.Minute)
	return s
}

// Put stores a result until its TTL elapses. A non-positive TTL stores it
// without expiry.
func (s *MemoryStore) Put(_ context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	entry := memoryEntry{result: result}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Get returns the stored result, or models.ErrResultNotFound when the key
// is absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) (*models.AnalysisResult, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, models.ErrResultNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		return nil, models.ErrResultNotFound
	}
	return entry.result, nil
}

// Close stops the background sweeper
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
