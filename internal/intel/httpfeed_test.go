package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func feedServer(t *testing.T, status int, body feedResponse, sawHeaders *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawHeaders != nil {
			*sawHeaders = r.Header.Clone()
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFeedProvider_FetchDecodesRecords(t *testing.T) {
	var headers http.Header
	srv := feedServer(t, http.StatusOK, feedResponse{Records: []feedRecord{
		{ID: "feed-1", Category: "injection", Confidence: 0.8, LastSeen: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), CWE: []string{"CWE-89"}},
		{ID: "feed-2", Category: "phishing", Confidence: 0.7},
	}}, &headers)

	p := NewHTTPFeedProvider(ProviderConfig{Enabled: true, FeedURL: srv.URL, APIKey: "secret-key"}, testLogger())
	if !p.IsEnabled() {
		t.Fatal("provider should be enabled")
	}

	records, err := p.Fetch(context.Background(), req())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "feed-1" || records[0].Provider != feedSlug {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if len(records[0].References.CWE) != 1 || records[0].References.CWE[0] != "CWE-89" {
		t.Errorf("references not carried: %+v", records[0].References)
	}

	if got := headers.Get("Accept"); got != "application/json" {
		t.Errorf("Accept header = %q", got)
	}
	if got := headers.Get("Authorization"); got != "Bearer secret-key" {
		t.Errorf("Authorization header = %q", got)
	}
}

func TestHTTPFeedProvider_SkipsMalformedRecords(t *testing.T) {
	srv := feedServer(t, http.StatusOK, feedResponse{Records: []feedRecord{
		{ID: "", Category: "injection"},
		{ID: "feed-ok", Category: "xss"},
		{ID: "feed-nocat", Category: ""},
	}}, nil)

	p := NewHTTPFeedProvider(ProviderConfig{Enabled: true, FeedURL: srv.URL}, testLogger())
	records, err := p.Fetch(context.Background(), req())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0].ID != "feed-ok" {
		t.Errorf("malformed records must be skipped: %+v", records)
	}
}

func TestHTTPFeedProvider_ServerErrorFails(t *testing.T) {
	srv := feedServer(t, http.StatusInternalServerError, feedResponse{}, nil)

	p := NewHTTPFeedProvider(ProviderConfig{Enabled: true, FeedURL: srv.URL}, testLogger())
	if _, err := p.Fetch(context.Background(), req()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestHTTPFeedProvider_DisabledWithoutURL(t *testing.T) {
	p := NewHTTPFeedProvider(ProviderConfig{Enabled: true}, testLogger())
	if p.IsEnabled() {
		t.Error("provider without a feed URL must stay disabled")
	}
}

func TestHTTPFeedProvider_NoAuthHeaderWithoutKey(t *testing.T) {
	var headers http.Header
	srv := feedServer(t, http.StatusOK, feedResponse{}, &headers)

	p := NewHTTPFeedProvider(ProviderConfig{Enabled: true, FeedURL: srv.URL}, testLogger())
	if _, err := p.Fetch(context.Background(), req()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := headers.Get("Authorization"); got != "" {
		t.Errorf("Authorization header should be absent, got %q", got)
	}
}
