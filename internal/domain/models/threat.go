package models

// Severity represents the threat severity level
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// LikelihoodLevel is the coarse bucket derived from the likelihood value
type LikelihoodLevel string

const (
	LikelihoodHigh   LikelihoodLevel = "high"
	LikelihoodMedium LikelihoodLevel = "medium"
	LikelihoodLow    LikelihoodLevel = "low"
)

// Threat category slugs shared by the rule table, the attack-chain table and
// the auxiliary generators.
const (
	CategoryInjection             = "injection"
	CategoryBrokenAuthentication  = "broken_authentication"
	CategorySensitiveDataExposure = "sensitive_data_exposure"
	CategoryXSS                   = "xss"
	CategoryBrokenAccessControl   = "broken_access_control"
	CategoryMisconfiguration      = "security_misconfiguration"
	CategorySSRF                  = "ssrf"
	CategoryCryptographicFailure  = "cryptographic_failures"
	CategoryInsecureDesign        = "insecure_design"
	CategoryLoggingFailure        = "insufficient_logging"
	CategorySupplyChain           = "supply_chain"
	CategoryRansomware            = "ransomware"
	CategoryPhishing              = "phishing"
	CategoryAPIAbuse              = "api_abuse"
	CategoryDataPoisoning         = "ai_data_poisoning"
	CategoryAdvancedPersistent    = "advanced_persistent_threat"
	CategoryInsiderThreat         = "insider_threat"
	CategoryDenialOfService       = "denial_of_service"
)

// Generator provenance names. The order of generatorPriority is the
// deterministic tie-break used by the ranker.
const (
	ProvenanceRuleEngine  = "rule_engine"
	ProvenanceCorrelation = "correlation_analyzer"
	ProvenanceIndustry    = "industry_profile"
	ProvenanceEmerging    = "emerging_threat"
	ProvenancePredictive  = "predictive"
	ProvenanceFreeform    = "freeform"
)

var generatorPriority = map[string]int{
	ProvenanceRuleEngine:  0,
	ProvenanceCorrelation: 1,
	ProvenanceIndustry:    2,
	ProvenanceEmerging:    3,
	ProvenancePredictive:  4,
	ProvenanceFreeform:    5,
}

// GeneratorPriority returns the ranking priority of a provenance name.
// Unknown generators sort last.
func GeneratorPriority(provenance string) int {
	if p, ok := generatorPriority[provenance]; ok {
		return p
	}
	return len(generatorPriority)
}

// ThreatReferences links a candidate to external vulnerability catalogs
type ThreatReferences struct {
	CWE      []string `json:"cwe,omitempty"`
	CVE      []string `json:"cve,omitempty"`
	OWASP    []string `json:"owasp,omitempty"`
	External []string `json:"external,omitempty"`
}

// ThreatCandidate is a scored threat suggestion produced by one generator.
// Candidate IDs are deterministic slugs so that identical inputs rank
// identically across runs.
type ThreatCandidate struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Description     string           `json:"description,omitempty"`
	Severity        Severity         `json:"severity"`
	Likelihood      float64          `json:"likelihood"` // 0.0 - 1.0
	LikelihoodLevel LikelihoodLevel  `json:"likelihood_level"`
	Confidence      float64          `json:"confidence"` // 0.0 - 1.0
	MatchedSignals  []string         `json:"matched_signals,omitempty"`
	Provenance      string           `json:"provenance"`
	NonDeterministic bool            `json:"non_deterministic,omitempty"`
	References      ThreatReferences `json:"references"`
	CompositeScore  float64          `json:"composite_score"`
}

// SeverityWeight returns a numeric weight for ranking by severity
func (c *ThreatCandidate) SeverityWeight() int {
	return SeverityRank(c.Severity)
}

// SeverityRank maps a severity to its position in the total order
// low < medium < high < critical.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// SeverityFromConfidence applies the fixed confidence-to-severity cutoffs
// shared by the rule matcher and the auxiliary generators.
func SeverityFromConfidence(confidence float64) Severity {
	switch {
	case confidence >= 0.9:
		return SeverityCritical
	case confidence >= 0.7:
		return SeverityHigh
	case confidence >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// LikelihoodBucket maps a likelihood value to its coarse level using the
// fixed 0.5/0.8 cutoffs.
func LikelihoodBucket(likelihood float64) LikelihoodLevel {
	switch {
	case likelihood >= 0.8:
		return LikelihoodHigh
	case likelihood >= 0.5:
		return LikelihoodMedium
	default:
		return LikelihoodLow
	}
}

// DedupKey is the deduplication identity of a candidate
func (c *ThreatCandidate) DedupKey() string {
	return c.Category + "|" + c.Name
}
