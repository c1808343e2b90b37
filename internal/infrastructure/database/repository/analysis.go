package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"threatscope-lab/internal/domain/models"
)

const analysisSchema = `
CREATE TABLE IF NOT EXISTS analysis_results (
	analysis_id     TEXT PRIMARY KEY,
	threat_model_id TEXT NOT NULL,
	threat_count    INT NOT NULL,
	risk_score      DOUBLE PRECISION NOT NULL,
	payload         JSONB NOT NULL,
	generated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_threat_model
	ON analysis_results (threat_model_id, generated_at DESC);
`

// AnalysisSummary is the listing projection of a stored result
type AnalysisSummary struct {
	AnalysisID    string    `json:"analysis_id"`
	ThreatModelID string    `json:"threat_model_id"`
	ThreatCount   int       `json:"threat_count"`
	RiskScore     float64   `json:"risk_score"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// AnalysisRepository persists completed analyses for audit and history.
// Results are write-once: an analysis id is never updated in place.
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// EnsureSchema creates the backing table when it does not exist
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, analysisSchema); err != nil {
		return fmt.Errorf("failed to ensure analysis schema: %w", err)
	}
	return nil
}

// Insert stores a completed result
func (r *AnalysisRepository) Insert(ctx context.Context, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO analysis_results
			(analysis_id, threat_model_id, threat_count, risk_score, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (analysis_id) DO NOTHING`,
		result.AnalysisID,
		result.ThreatModelID,
		len(result.GeneratedThreats),
		result.RiskAssessment.OverallRiskScore,
		payload,
		result.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis result: %w", err)
	}
	return nil
}

// GetByID fetches a stored result by analysis id
func (r *AnalysisRepository) GetByID(ctx context.Context, analysisID string) (*models.AnalysisResult, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM analysis_results WHERE analysis_id = $1`,
		analysisID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis result: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return &result, nil
}

// ListByThreatModel returns the most recent analyses of one threat model
func (r *AnalysisRepository) ListByThreatModel(ctx context.Context, threatModelID string, limit int) ([]AnalysisSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT analysis_id, threat_model_id, threat_count, risk_score, generated_at
		FROM analysis_results
		WHERE threat_model_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`,
		threatModelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.AnalysisID, &s.ThreatModelID, &s.ThreatCount, &s.RiskScore, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountSince returns how many analyses completed after the given time
func (r *AnalysisRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis_results WHERE generated_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis results: %w", err)
	}
	return count, nil
}
