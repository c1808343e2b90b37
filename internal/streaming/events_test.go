package streaming

import (
	"testing"

	"threatscope-lab/internal/domain/models"
)

func detectedEvent(severity models.Severity, category, tmID string) *AnalysisEvent {
	return &AnalysisEvent{
		Type:          EventTypeThreatDetected,
		ThreatModelID: tmID,
		Category:      category,
		Severity:      severity,
	}
}

func TestSubscription_Matches(t *testing.T) {
	tests := []struct {
		name  string
		sub   Subscription
		event *AnalysisEvent
		want  bool
	}{
		{
			name:  "empty subscription passes detections",
			sub:   Subscription{},
			event: detectedEvent(models.SeverityLow, "xss", "tm-1"),
			want:  true,
		},
		{
			name:  "min severity filters below",
			sub:   Subscription{MinSeverity: models.SeverityHigh},
			event: detectedEvent(models.SeverityMedium, "xss", "tm-1"),
			want:  false,
		},
		{
			name:  "min severity passes at threshold",
			sub:   Subscription{MinSeverity: models.SeverityHigh},
			event: detectedEvent(models.SeverityHigh, "xss", "tm-1"),
			want:  true,
		},
		{
			name:  "min severity passes above",
			sub:   Subscription{MinSeverity: models.SeverityHigh},
			event: detectedEvent(models.SeverityCritical, "xss", "tm-1"),
			want:  true,
		},
		{
			name:  "category filter excludes others",
			sub:   Subscription{Categories: []string{"injection", "xss"}},
			event: detectedEvent(models.SeverityHigh, "phishing", "tm-1"),
			want:  false,
		},
		{
			name:  "category filter includes listed",
			sub:   Subscription{Categories: []string{"injection", "xss"}},
			event: detectedEvent(models.SeverityHigh, "injection", "tm-1"),
			want:  true,
		},
		{
			name:  "threat model filter excludes others",
			sub:   Subscription{ThreatModelIDs: []string{"tm-a"}},
			event: detectedEvent(models.SeverityHigh, "xss", "tm-b"),
			want:  false,
		},
		{
			name:  "threat model filter includes listed",
			sub:   Subscription{ThreatModelIDs: []string{"tm-a", "tm-b"}},
			event: detectedEvent(models.SeverityHigh, "xss", "tm-b"),
			want:  true,
		},
		{
			name: "completions dropped by default",
			sub:  Subscription{},
			event: &AnalysisEvent{
				Type:          EventTypeAnalysisCompleted,
				ThreatModelID: "tm-1",
			},
			want: false,
		},
		{
			name: "completions opt in",
			sub:  Subscription{IncludeCompletions: true},
			event: &AnalysisEvent{
				Type:          EventTypeAnalysisCompleted,
				ThreatModelID: "tm-1",
			},
			want: true,
		},
		{
			name: "completions still honor threat model filter",
			sub:  Subscription{IncludeCompletions: true, ThreatModelIDs: []string{"tm-a"}},
			event: &AnalysisEvent{
				Type:          EventTypeAnalysisCompleted,
				ThreatModelID: "tm-b",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Matches(tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAnalysisCompletedEvent(t *testing.T) {
	result := &models.AnalysisResult{
		AnalysisID:    "a-1",
		ThreatModelID: "tm-1",
		GeneratedThreats: []models.ThreatCandidate{
			{ID: "t-1"}, {ID: "t-2"},
		},
		RiskAssessment: models.RiskAssessment{OverallRiskScore: 0.73},
		Metadata:       models.ProcessingMetadata{IntelDegraded: true},
	}

	e := NewAnalysisCompletedEvent(result)
	if e.Type != EventTypeAnalysisCompleted {
		t.Errorf("Type = %q", e.Type)
	}
	if e.ID == "" {
		t.Error("event must carry an id")
	}
	if e.AnalysisID != "a-1" || e.ThreatModelID != "tm-1" {
		t.Errorf("identifiers not carried: %+v", e)
	}
	if e.ThreatCount != 2 {
		t.Errorf("ThreatCount = %d, want 2", e.ThreatCount)
	}
	if e.OverallRiskScore != 0.73 {
		t.Errorf("OverallRiskScore = %v", e.OverallRiskScore)
	}
	if !e.Degraded {
		t.Error("Degraded flag not carried")
	}
}

func TestNewThreatDetectedEvent(t *testing.T) {
	result := &models.AnalysisResult{AnalysisID: "a-1", ThreatModelID: "tm-1"}
	threat := &models.ThreatCandidate{
		ID:         "threat-injection",
		Name:       "SQL Injection",
		Category:   models.CategoryInjection,
		Severity:   models.SeverityCritical,
		Confidence: 0.91,
		Provenance: models.ProvenanceRuleEngine,
	}

	e := NewThreatDetectedEvent(result, threat)
	if e.Type != EventTypeThreatDetected {
		t.Errorf("Type = %q", e.Type)
	}
	if e.ThreatID != "threat-injection" || e.ThreatName != "SQL Injection" {
		t.Errorf("threat identity not carried: %+v", e)
	}
	if e.Category != models.CategoryInjection || e.Severity != models.SeverityCritical {
		t.Errorf("classification not carried: %+v", e)
	}
	if e.Confidence != 0.91 || e.Provenance != models.ProvenanceRuleEngine {
		t.Errorf("scoring not carried: %+v", e)
	}
}
