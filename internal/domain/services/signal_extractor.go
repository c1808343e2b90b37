package services

import (
	"regexp"
	"strings"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// keywordEntry binds a vocabulary term to the signal it emits when the term
// appears in the normalized input corpus.
type keywordEntry struct {
	signal string
	re     *regexp.Regexp
}

// patternEntry is a structural detector over the raw content
type patternEntry struct {
	signal string
	re     *regexp.Regexp
}

// SignalExtractor turns an analysis request into a duplicate-free set of
// named signals. Extraction is pure: the same request always yields the same
// set, and the request is never mutated.
type SignalExtractor struct {
	logger   *logger.Logger
	keywords []keywordEntry
	patterns []patternEntry
}

// The keyword vocabulary. Matching is word-bounded so that "rate" does not
// fire on "generate". Multi-word terms tolerate space, underscore or hyphen
// separators.
var keywordVocabulary = []string{
	"admin", "api", "audit", "authentication", "authorization", "availability",
	"backup", "card", "certificate", "configuration", "container", "cookie",
	"credential", "database", "debug", "default", "dependency", "encryption",
	"endpoint", "fetch", "flood", "input", "internal", "key", "log", "login",
	"md5", "monitor", "password", "payment", "personal", "plaintext",
	"privilege", "query", "rate", "role", "script", "session", "sha1", "sql",
	"third party", "token", "traffic", "upload", "vendor",
}

var builtinPatterns = []struct {
	signal string
	expr   string
}{
	{"pattern_sql_shape", `(?i)\b(select|insert|update|delete|union)\b.{0,80}\b(from|into|where|set)\b`},
	{"pattern_script_tag", `(?i)<\s*script\b`},
	{"pattern_url_shape", `(?i)\bhttps?://[^\s"'<>]+`},
	{"pattern_ip_shape", `\b(?:\d{1,3}\.){3}\d{1,3}\b`},
	{"pattern_base64_shape", `\b[A-Za-z0-9+/]{40,}={0,2}\b`},
	{"pattern_jwt_shape", `\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`},
}

// complexityThreshold is the component-plus-flow count above which the
// architecture counts as complex.
const complexityThreshold = 10

// content-length cutoffs for the complexity bucket
const (
	complexityMediumLen = 200
	complexityHighLen   = 2000
)

// NewSignalExtractor compiles the vocabulary and pattern detectors once
func NewSignalExtractor(log *logger.Logger) *SignalExtractor {
	e := &SignalExtractor{logger: log.WithComponent("signal_extractor")}

	for _, term := range keywordVocabulary {
		slug := strings.ReplaceAll(term, " ", "_")
		expr := `\b` + strings.ReplaceAll(regexp.QuoteMeta(term), ` `, `[ _-]`) + `\b`
		e.keywords = append(e.keywords, keywordEntry{
			signal: "keyword_" + slug,
			re:     regexp.MustCompile(expr),
		})
	}
	for _, p := range builtinPatterns {
		e.patterns = append(e.patterns, patternEntry{signal: p.signal, re: regexp.MustCompile(p.expr)})
	}
	return e
}

// Extract derives all signals for one request
func (e *SignalExtractor) Extract(req *models.AnalysisRequest) *models.SignalSet {
	set := models.NewSignalSet()

	corpus := e.buildCorpus(req)
	for _, kw := range e.keywords {
		if kw.re.MatchString(corpus) {
			set.Add(models.SignalKindKeyword, kw.signal)
		}
	}
	for _, p := range e.patterns {
		if p.re.MatchString(req.Content) {
			set.Add(models.SignalKindPattern, p.signal)
		}
	}

	e.extractContext(req, set)
	e.extractStatistics(req, set)

	e.logger.Debug().
		Str("threat_model_id", req.ThreatModelID).
		Int("signals", set.Len()).
		Int("keywords", len(set.ByKind(models.SignalKindKeyword))).
		Int("patterns", len(set.ByKind(models.SignalKindPattern))).
		Int("context", len(set.ByKind(models.SignalKindContext))).
		Msg("signals extracted")
	return set
}

// buildCorpus joins every free-text surface of the request into one
// lowercased string for keyword scanning.
func (e *SignalExtractor) buildCorpus(req *models.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString(req.Content)
	b.WriteByte('\n')

	for _, c := range req.Context.SystemComponents {
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.Type)
		b.WriteByte(' ')
		b.WriteString(c.Technology)
		b.WriteByte(' ')
		b.WriteString(strings.Join(c.Tags, " "))
		b.WriteByte('\n')
	}
	for _, f := range req.Context.DataFlows {
		b.WriteString(f.Protocol)
		b.WriteByte(' ')
		b.WriteString(f.DataClass)
		b.WriteByte('\n')
	}
	for _, a := range req.Context.Assets {
		b.WriteString(a.Name)
		b.WriteByte(' ')
		b.WriteString(a.Sensitivity)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(req.Context.ExistingControls, " "))

	return strings.ToLower(b.String())
}

// extractContext derives signals from the structured architecture description
// rather than from free text.
func (e *SignalExtractor) extractContext(req *models.AnalysisRequest, set *models.SignalSet) {
	ctx := &req.Context

	for _, c := range ctx.SystemComponents {
		if c.Type != "" {
			set.Add(models.SignalKindContext, "context_component_"+slugify(c.Type))
		}
		if c.Exposed {
			set.Add(models.SignalKindContext, "context_exposed_component")
		}
	}
	for _, f := range ctx.DataFlows {
		if !f.Encrypted {
			set.Add(models.SignalKindContext, "context_unencrypted_flow")
		}
		if f.DataClass == "confidential" || f.DataClass == "restricted" {
			set.Add(models.SignalKindContext, "context_sensitive_flow")
		}
	}
	for _, a := range ctx.Assets {
		if a.Sensitivity == "confidential" || a.Sensitivity == "restricted" {
			set.Add(models.SignalKindContext, "context_sensitive_asset")
		}
	}

	bc := &ctx.BusinessContext
	if bc.Industry != "" {
		set.Add(models.SignalKindContext, "context_industry_"+slugify(bc.Industry))
	}
	if bc.DeploymentEnv != "" {
		set.Add(models.SignalKindContext, "context_deployment_"+slugify(bc.DeploymentEnv))
	}
	for _, regime := range bc.ComplianceRegimes {
		set.Add(models.SignalKindContext, "context_compliance_"+slugify(regime))
	}

	if len(ctx.ExternalDependencies) > 0 {
		set.Add(models.SignalKindContext, "context_has_external_dependencies")
	}
	if len(ctx.TrustBoundaries) > 0 {
		set.Add(models.SignalKindContext, "context_trust_boundaries_defined")
	}
	if len(ctx.ExistingControls) == 0 {
		set.Add(models.SignalKindContext, "context_no_existing_controls")
	}
}

// extractStatistics derives coarse size and shape signals. The content
// complexity bucket combines length with character diversity; an empty
// content contributes no statistic signals.
func (e *SignalExtractor) extractStatistics(req *models.AnalysisRequest, set *models.SignalSet) {
	if len(req.Content) > 0 {
		set.Add(models.SignalKindStatistic, "statistic_complexity_"+complexityBucket(req.Content))
	}

	elements := len(req.Context.SystemComponents) + len(req.Context.DataFlows)
	if elements > complexityThreshold {
		set.Add(models.SignalKindStatistic, "statistic_large_architecture")
	}
}

// complexityBucket classifies content into low, medium or high complexity
// from its length and its distinct-rune ratio.
func complexityBucket(content string) string {
	distinct := make(map[rune]struct{})
	total := 0
	for _, r := range content {
		distinct[r] = struct{}{}
		total++
	}
	diversity := float64(len(distinct)) / float64(total)

	level := 0
	if total > complexityMediumLen {
		level++
	}
	if total > complexityHighLen {
		level++
	}
	if diversity > 0.35 && level < 2 {
		level++
	}
	switch level {
	case 0:
		return "low"
	case 1:
		return "medium"
	default:
		return "high"
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify normalizes a free-text label into a stable lowercase token
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
