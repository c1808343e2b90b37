package streaming

import (
	"time"

	"github.com/google/uuid"

	"threatscope-lab/internal/domain/models"
)

// EventType represents the type of analysis event
type EventType string

const (
	EventTypeAnalysisCompleted EventType = "analysis.completed"
	EventTypeThreatDetected    EventType = "threat.detected"
)

// AnalysisEvent is a real-time notification emitted while or after an
// analysis runs. A completed analysis emits one analysis.completed event
// plus one threat.detected event per critical finding.
type AnalysisEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	AnalysisID    string `json:"analysis_id"`
	ThreatModelID string `json:"threat_model_id"`

	// Analysis summary (analysis.completed)
	ThreatCount      int     `json:"threat_count,omitempty"`
	OverallRiskScore float64 `json:"overall_risk_score,omitempty"`
	Degraded         bool    `json:"degraded,omitempty"`

	// Threat details (threat.detected)
	ThreatID   string          `json:"threat_id,omitempty"`
	ThreatName string          `json:"threat_name,omitempty"`
	Category   string          `json:"category,omitempty"`
	Severity   models.Severity `json:"severity,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Provenance string          `json:"provenance,omitempty"`
}

// NewAnalysisCompletedEvent creates the completion event for a result
func NewAnalysisCompletedEvent(result *models.AnalysisResult) *AnalysisEvent {
	return &AnalysisEvent{
		ID:               uuid.New().String(),
		Type:             EventTypeAnalysisCompleted,
		Timestamp:        time.Now().UTC(),
		AnalysisID:       result.AnalysisID,
		ThreatModelID:    result.ThreatModelID,
		ThreatCount:      len(result.GeneratedThreats),
		OverallRiskScore: result.RiskAssessment.OverallRiskScore,
		Degraded:         result.Metadata.IntelDegraded,
	}
}

// NewThreatDetectedEvent creates a detection event for one finding
func NewThreatDetectedEvent(result *models.AnalysisResult, threat *models.ThreatCandidate) *AnalysisEvent {
	return &AnalysisEvent{
		ID:            uuid.New().String(),
		Type:          EventTypeThreatDetected,
		Timestamp:     time.Now().UTC(),
		AnalysisID:    result.AnalysisID,
		ThreatModelID: result.ThreatModelID,
		ThreatID:      threat.ID,
		ThreatName:    threat.Name,
		Category:      threat.Category,
		Severity:      threat.Severity,
		Confidence:    threat.Confidence,
		Provenance:    threat.Provenance,
	}
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by severity (empty = all)
	MinSeverity models.Severity `json:"min_severity,omitempty"`

	// Filter by threat categories (empty = all)
	Categories []string `json:"categories,omitempty"`

	// Filter by threat model ids (empty = all)
	ThreatModelIDs []string `json:"threat_model_ids,omitempty"`

	// Include analysis.completed events (threat.detected is always included)
	IncludeCompletions bool `json:"include_completions,omitempty"`
}

// Matches checks if an event passes the subscription filters
func (s *Subscription) Matches(event *AnalysisEvent) bool {
	if event.Type == EventTypeAnalysisCompleted {
		return s.IncludeCompletions && s.matchesThreatModel(event)
	}

	if s.MinSeverity != "" &&
		models.SeverityRank(event.Severity) < models.SeverityRank(s.MinSeverity) {
		return false
	}

	if len(s.Categories) > 0 {
		found := false
		for _, c := range s.Categories {
			if c == event.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return s.matchesThreatModel(event)
}

func (s *Subscription) matchesThreatModel(event *AnalysisEvent) bool {
	if len(s.ThreatModelIDs) == 0 {
		return true
	}
	for _, id := range s.ThreatModelIDs {
		if id == event.ThreatModelID {
			return true
		}
	}
	return false
}
