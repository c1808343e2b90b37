package cache

import (
	"context"
	"time"

	"threatscope-lab/internal/domain/models"
)

// ResultStore is the result-cache contract of the pipeline. Writes are
// fire-and-forget at the call site: a store failure is logged and the
// computed result is still returned to the caller. A read within TTL
// returns exactly what was written; after TTL the key behaves as absent
// and Get returns models.ErrResultNotFound.
type ResultStore interface {
	Put(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error
	Get(ctx context.Context, key string) (*models.AnalysisResult, error)
	Close() error
}
