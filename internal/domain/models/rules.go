package models

import "fmt"

// RuleDefinition is one immutable record of the weighted rule table. The
// table is loaded once at startup and shared read-only across requests.
type RuleDefinition struct {
	ID              string           `json:"id"`
	Category        string           `json:"category"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	RequiredSignals []string         `json:"required_signals"`
	Threshold       float64          `json:"threshold"`   // (0, 1]
	BaseWeight      float64          `json:"base_weight"` // (0, 1]
	References      ThreatReferences `json:"references"`
}

// Validate reports whether the rule record is well formed. Malformed rules
// are skipped by the matcher, never fatal.
func (r *RuleDefinition) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has empty id")
	}
	if r.Category == "" {
		return fmt.Errorf("rule %s has empty category", r.ID)
	}
	if len(r.RequiredSignals) == 0 {
		return fmt.Errorf("rule %s has no required signals", r.ID)
	}
	if r.Threshold <= 0 || r.Threshold > 1 {
		return fmt.Errorf("rule %s has threshold %f outside (0,1]", r.ID, r.Threshold)
	}
	if r.BaseWeight <= 0 || r.BaseWeight > 1 {
		return fmt.Errorf("rule %s has base weight %f outside (0,1]", r.ID, r.BaseWeight)
	}
	return nil
}

// AttackChainDefinition describes a multi-stage pattern: several
// individually-moderate categories co-occurring indicate a higher-order
// threat.
type AttackChainDefinition struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	RequiredCategories []string         `json:"required_categories"`
	ConfidenceBoost    float64          `json:"confidence_boost"`
	References         ThreatReferences `json:"references"`
}

// Validate reports whether the chain record is well formed
func (c *AttackChainDefinition) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("attack chain has empty id")
	}
	if len(c.RequiredCategories) < 2 {
		return fmt.Errorf("attack chain %s needs at least two categories", c.ID)
	}
	if c.ConfidenceBoost < 0 || c.ConfidenceBoost > 0.15 {
		return fmt.Errorf("attack chain %s has boost %f outside [0,0.15]", c.ID, c.ConfidenceBoost)
	}
	return nil
}
