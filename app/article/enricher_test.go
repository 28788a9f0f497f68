package article

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPEnricher_Enrich(t *testing.T) {
	var gotAuth string
	var gotBody enrichRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Enrichment{
			Summary:    "Condensed version",
			Categories: []string{"Science"},
			Tags:       []string{"physics", "space"},
		})
	}))
	defer server.Close()

	enricher := NewHTTPEnricher(server.URL, "secret-key", server.Client())
	enrichment, err := enricher.Enrich(context.Background(), "Article Title", "Full article body")
	if err != nil {
		t.Fatalf("Expected successful enrichment, got error: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if gotBody.Title != "Article Title" || gotBody.Content != "Full article body" {
		t.Errorf("Unexpected request payload: %+v", gotBody)
	}
	if enrichment.Summary != "Condensed version" {
		t.Errorf("Expected summary from service, got %q", enrichment.Summary)
	}
	if len(enrichment.Categories) != 1 || enrichment.Categories[0] != "Science" {
		t.Errorf("Expected categories from service, got %v", enrichment.Categories)
	}
	if len(enrichment.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", enrichment.Tags)
	}
}

func TestHTTPEnricher_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Enrichment{Summary: "ok"})
	}))
	defer server.Close()

	enricher := NewHTTPEnricher(server.URL, "", server.Client())
	if _, err := enricher.Enrich(context.Background(), "T", "C"); err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no auth header without an API key, got %q", gotAuth)
	}
}

func TestHTTPEnricher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	enricher := NewHTTPEnricher(server.URL, "", server.Client())
	if _, err := enricher.Enrich(context.Background(), "T", "C"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestHTTPEnricher_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	enricher := NewHTTPEnricher(server.URL, "", server.Client())
	if _, err := enricher.Enrich(context.Background(), "T", "C"); err == nil {
		t.Error("Expected error for malformed response body")
	}
}

func TestFallbackEnrichment_ShortContentKeptWhole(t *testing.T) {
	enrichment := FallbackEnrichment("A short article body.")

	if enrichment.Summary != "A short article body." {
		t.Errorf("Expected short content unchanged, got %q", enrichment.Summary)
	}
	if strings.HasSuffix(enrichment.Summary, "...") {
		t.Error("Short content must not get an ellipsis")
	}
}

func TestFallbackEnrichment_LongContentTruncated(t *testing.T) {
	content := strings.Repeat("abcdefghij", 30)
	enrichment := FallbackEnrichment(content)

	if !strings.HasSuffix(enrichment.Summary, "...") {
		t.Error("Expected truncated summary to end with ellipsis")
	}
	if got := len([]rune(enrichment.Summary)); got != fallbackSummaryLength+3 {
		t.Errorf("Expected summary of %d runes, got %d", fallbackSummaryLength+3, got)
	}
	if !strings.HasPrefix(enrichment.Summary, content[:fallbackSummaryLength]) {
		t.Error("Summary must be a prefix of the content")
	}
	if enrichment.Categories == nil || enrichment.Tags == nil {
		t.Error("Fallback carries empty, non-nil categories and tags")
	}
}
