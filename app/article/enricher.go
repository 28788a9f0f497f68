package article

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// fallbackSummaryLength is how much of the body serves as the summary when
// the enrichment service is unavailable.
const fallbackSummaryLength = 200

// Enrichment is what the external text-enrichment service produces for one
// article.
type Enrichment struct {
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// Enricher is the external collaborator that summarizes and categorizes an
// article. Implementations may fail; callers fall back to
// FallbackEnrichment.
type Enricher interface {
	Enrich(ctx context.Context, title, content string) (*Enrichment, error)
}

// HTTPEnricher calls an enrichment service over HTTP. The service contract
// is a single POST accepting {title, content} and returning {summary,
// categories, tags}.
type HTTPEnricher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPEnricher(endpoint, apiKey string, httpClient *http.Client) *HTTPEnricher {
	return &HTTPEnricher{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type enrichRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (e *HTTPEnricher) Enrich(ctx context.Context, title, content string) (*Enrichment, error) {
	payload, err := json.Marshal(enrichRequest{Title: title, Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to encode enrichment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read enrichment response: %w", err)
	}

	var enrichment Enrichment
	if err := json.Unmarshal(body, &enrichment); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment response: %w", err)
	}

	return &enrichment, nil
}

// FallbackEnrichment builds the degraded enrichment used when the service
// failed: a truncated-body summary and no categories or tags.
func FallbackEnrichment(content string) *Enrichment {
	summary := content
	if runes := []rune(content); len(runes) > fallbackSummaryLength {
		summary = string(runes[:fallbackSummaryLength]) + "..."
	}

	return &Enrichment{
		Summary:    summary,
		Categories: []string{},
		Tags:       []string{},
	}
}
