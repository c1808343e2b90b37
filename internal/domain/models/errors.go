package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation failures are rejected before any pipeline work;
// everything else is contained as close to its source as possible so a
// degraded result is preferred over a hard failure.
var (
	// ErrPipelineFailure marks a total collapse: every generator failed or an
	// unrecoverable error occurred before any candidate was produced.
	ErrPipelineFailure = errors.New("analysis pipeline failed")

	// ErrIntelUnavailable marks a timed-out or failed intelligence fetch. It
	// never fails the request; it lowers the data-quality score.
	ErrIntelUnavailable = errors.New("intelligence source unavailable")

	// ErrResultNotFound is returned when an analysis id is neither cached nor
	// persisted.
	ErrResultNotFound = errors.New("analysis result not found")
)

// ValidationError describes a malformed AnalysisRequest. It is surfaced to
// the caller with a structured code and never reaches the pipeline.
type ValidationError struct {
	Field string
	Code  string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
}

// ValidateRequest checks the required request fields
func ValidateRequest(req *AnalysisRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Code: "missing_body", Msg: "request body is required"}
	}
	if req.ThreatModelID == "" {
		return &ValidationError{Field: "threat_model_id", Code: "missing_field", Msg: "threat_model_id is required"}
	}
	if len(req.Context.SystemComponents) == 0 {
		return &ValidationError{Field: "context.system_components", Code: "missing_field", Msg: "at least one system component is required"}
	}
	switch req.AnalysisDepth {
	case "", DepthBasic, DepthStandard, DepthComprehensive:
	default:
		return &ValidationError{Field: "analysis_depth", Code: "invalid_value", Msg: "analysis_depth must be basic, standard or comprehensive"}
	}
	return nil
}
