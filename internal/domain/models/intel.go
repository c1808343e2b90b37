package models

import "time"

// IntelRecord is one contextual threat-intelligence record from an external
// provider
type IntelRecord struct {
	ID         string           `json:"id"`
	Category   string           `json:"category"`
	Confidence float64          `json:"confidence"`
	LastSeen   time.Time        `json:"last_seen"`
	References ThreatReferences `json:"references"`
	Provider   string           `json:"provider,omitempty"`
}

// IntelSnapshot is the joined result of all providers consulted for one
// analysis. A failed or timed-out provider contributes nothing; Degraded
// records that at least one provider was unavailable.
type IntelSnapshot struct {
	Records   []IntelRecord `json:"records"`
	Providers []string      `json:"providers"`
	Degraded  bool          `json:"degraded"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// HasCategory reports whether any record matches the category
func (s *IntelSnapshot) HasCategory(category string) bool {
	for _, r := range s.Records {
		if r.Category == category {
			return true
		}
	}
	return false
}

// Empty reports whether the snapshot carries no records
func (s *IntelSnapshot) Empty() bool {
	return s == nil || len(s.Records) == 0
}
