package services

import (
	"reflect"
	"strings"
	"testing"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func authRequest() *models.AnalysisRequest {
	return &models.AnalysisRequest{
		ThreatModelID: "tm-auth-1",
		Content:       "Users sign in with a password. Authentication happens against the user database.",
		Context: models.SystemContext{
			SystemComponents: []models.SystemComponent{
				{ID: "web", Name: "Web Frontend", Type: "web_app", Exposed: true},
				{ID: "db", Name: "User Database", Type: "database"},
			},
		},
	}
}

func TestSignalExtractor_Keywords(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	set := e.Extract(authRequest())

	for _, want := range []string{"keyword_password", "keyword_authentication", "keyword_database"} {
		if !set.Has(want) {
			t.Errorf("expected signal %q, got %v", want, set.Names())
		}
	}
	// "login" does not appear; the word boundary must not fire on "sign in"
	if set.Has("keyword_login") {
		t.Errorf("unexpected keyword_login in %v", set.Names())
	}
}

func TestSignalExtractor_WordBoundary(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := &models.AnalysisRequest{
		ThreatModelID: "tm-boundary",
		Content:       "We generate reports and integrate with partners.",
		Context: models.SystemContext{
			SystemComponents: []models.SystemComponent{{ID: "svc", Name: "Reporting", Type: "service"}},
		},
	}
	set := e.Extract(req)
	if set.Has("keyword_rate") {
		t.Error("keyword_rate fired inside 'generate'")
	}
}

func TestSignalExtractor_Patterns(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := authRequest()
	req.Content += ` The API builds queries like SELECT * FROM users WHERE name = input, and renders <script> blocks.`

	set := e.Extract(req)
	if !set.Has("pattern_sql_shape") {
		t.Errorf("expected pattern_sql_shape, got %v", set.Names())
	}
	if !set.Has("pattern_script_tag") {
		t.Errorf("expected pattern_script_tag, got %v", set.Names())
	}
}

func TestSignalExtractor_ContextSignals(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := authRequest()
	req.Context.DataFlows = []models.DataFlow{
		{ID: "f1", Encrypted: false, DataClass: "confidential"},
	}
	req.Context.BusinessContext = models.BusinessContext{
		Industry:      "Financial Services",
		DeploymentEnv: "cloud",
	}
	req.Context.ExternalDependencies = []string{"stripe"}

	set := e.Extract(req)
	for _, want := range []string{
		"context_component_web_app",
		"context_exposed_component",
		"context_unencrypted_flow",
		"context_sensitive_flow",
		"context_industry_financial_services",
		"context_deployment_cloud",
		"context_has_external_dependencies",
		"context_no_existing_controls",
	} {
		if !set.Has(want) {
			t.Errorf("expected signal %q, got %v", want, set.Names())
		}
	}
}

func TestSignalExtractor_ComplexityBuckets(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short uniform", "aaaa aaaa aaaa aaaa aaaa aaaa", "low"},
		{"short diverse", "Kx9! qZ#7 mW@2 vB$5", "medium"},
		{"long prose", strings.Repeat("the service stores payment data and talks to the gateway over https ", 10), "medium"},
		{"very long", strings.Repeat("component talks to component over an internal channel with shared state ", 40), "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := complexityBucket(tt.content); got != tt.want {
				t.Errorf("complexityBucket(%s): got %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSignalExtractor_EmptyContentNoStatistic(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := &models.AnalysisRequest{
		ThreatModelID: "tm-empty",
		Context: models.SystemContext{
			SystemComponents: []models.SystemComponent{{ID: "a", Name: "A", Type: "service"}},
		},
	}
	set := e.Extract(req)
	for _, name := range set.Names() {
		if strings.HasPrefix(name, "statistic_complexity_") {
			t.Errorf("unexpected complexity signal %q for empty content", name)
		}
	}
}

func TestSignalExtractor_LargeArchitecture(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := authRequest()
	for i := 0; i < 12; i++ {
		req.Context.DataFlows = append(req.Context.DataFlows, models.DataFlow{ID: "f", Encrypted: true})
	}
	set := e.Extract(req)
	if !set.Has("statistic_large_architecture") {
		t.Errorf("expected statistic_large_architecture, got %v", set.Names())
	}
}

func TestSignalExtractor_Deterministic(t *testing.T) {
	e := NewSignalExtractor(testLogger())
	req := authRequest()

	first := e.Extract(req).Names()
	for i := 0; i < 5; i++ {
		if got := e.Extract(req).Names(); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction not deterministic: got %v, want %v", got, first)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Financial Services", "financial_services"},
		{"  e-Commerce  ", "e_commerce"},
		{"PCI-DSS", "pci_dss"},
		{"cloud", "cloud"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
