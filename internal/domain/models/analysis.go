package models

import "time"

// Methodology is the requested threat-modeling methodology
type Methodology string

const (
	MethodologySTRIDE  Methodology = "stride"
	MethodologyPASTA   Methodology = "pasta"
	MethodologyLINDDUN Methodology = "linddun"
	MethodologyVAST    Methodology = "vast"
)

// AnalysisDepth controls how much of the pipeline output is returned
type AnalysisDepth string

const (
	DepthBasic         AnalysisDepth = "basic"
	DepthStandard      AnalysisDepth = "standard"
	DepthComprehensive AnalysisDepth = "comprehensive"
)

// SystemComponent is one architectural element of the modeled system
type SystemComponent struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"` // e.g. web_app, api, database, queue
	Technology string   `json:"technology,omitempty"`
	Exposed    bool     `json:"exposed,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// DataFlow is a directed flow of data between two components
type DataFlow struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Protocol    string `json:"protocol,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty"`
	DataClass   string `json:"data_classification,omitempty"`
}

// Asset is something worth protecting
type Asset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sensitivity string `json:"sensitivity,omitempty"` // public, internal, confidential, restricted
}

// BusinessContext carries the organizational attributes that drive
// context-sensitive confidence adjustment
type BusinessContext struct {
	Industry           string `json:"industry,omitempty"`
	Criticality        string `json:"criticality,omitempty"` // low, medium, high, mission_critical
	DeploymentEnv      string `json:"deployment_environment,omitempty"`
	ComplianceRegimes  []string `json:"compliance_regimes,omitempty"`
	UserBase           string `json:"user_base,omitempty"`
}

// SystemContext is the structured description of the analyzed architecture
type SystemContext struct {
	SystemComponents     []SystemComponent `json:"system_components"`
	DataFlows            []DataFlow        `json:"data_flows,omitempty"`
	Assets               []Asset           `json:"assets,omitempty"`
	TrustBoundaries      []string          `json:"trust_boundaries,omitempty"`
	ExistingControls     []string          `json:"existing_controls,omitempty"`
	BusinessContext      BusinessContext   `json:"business_context,omitempty"`
	ExternalDependencies []string          `json:"external_dependencies,omitempty"`
}

// UserPreferences tune the response shape per caller
type UserPreferences struct {
	IncludePredictions     bool `json:"include_predictions,omitempty"`
	IncludeRecommendations bool `json:"include_recommendations,omitempty"`
	MaxThreats             int  `json:"max_threats,omitempty"`
}

// AnalysisRequest is the immutable input of one analysis
type AnalysisRequest struct {
	ThreatModelID   string          `json:"threat_model_id"`
	Methodology     Methodology     `json:"methodology,omitempty"`
	AnalysisDepth   AnalysisDepth   `json:"analysis_depth,omitempty"`
	Content         string          `json:"content,omitempty"`
	Context         SystemContext   `json:"context"`
	UserPreferences UserPreferences `json:"user_preferences,omitempty"`
}

// RiskDistribution counts candidates per severity
type RiskDistribution struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// RiskAssessment summarizes the aggregate risk of the final candidate set
type RiskAssessment struct {
	OverallRiskScore        float64          `json:"overall_risk_score"` // 0 - 100
	RiskDistribution        RiskDistribution `json:"risk_distribution"`
	CriticalVulnerabilities []string         `json:"critical_vulnerabilities"`
}

// ConfidenceMetrics are the per-analysis calibration outputs. All values are
// bounded to [0, 0.98]; the system deliberately never claims certainty.
type ConfidenceMetrics struct {
	OverallConfidence  float64 `json:"overall_confidence"`
	GeneratorAgreement float64 `json:"generator_agreement"`
	DataQualityScore   float64 `json:"data_quality_score"`
	CompletenessScore  float64 `json:"completeness_score"`
}

// Recommendation is a control suggestion derived from a ranked candidate
type Recommendation struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// Prediction is a forecast-style item from the predictive generator
type Prediction struct {
	TimeHorizon string  `json:"time_horizon"`
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// ProcessingMetadata describes how the result was produced
type ProcessingMetadata struct {
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	ModelsUsed       []string `json:"models_used"`
	AccuracyScore    float64  `json:"accuracy_score"`
	Limitations      []string `json:"limitations,omitempty"`
	IntelRecords     int      `json:"intel_records"`
	IntelDegraded    bool     `json:"intel_degraded,omitempty"`
}

// AnalysisResult is the finished, immutable output of one analysis. It is
// written once to the result cache and optionally to the durable store.
type AnalysisResult struct {
	AnalysisID        string             `json:"analysis_id"`
	ThreatModelID     string             `json:"threat_model_id"`
	GeneratedThreats  []ThreatCandidate  `json:"generated_threats"`
	RiskAssessment    RiskAssessment     `json:"risk_assessment"`
	Recommendations   []Recommendation   `json:"recommendations,omitempty"`
	Predictions       []Prediction       `json:"predictions,omitempty"`
	ConfidenceMetrics ConfidenceMetrics  `json:"confidence_metrics"`
	Metadata          ProcessingMetadata `json:"processing_metadata"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
