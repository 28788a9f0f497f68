package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxResponseBodyBytes limits the size of fetched page bodies.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// RevalidationToken carries the cache validators returned by a previous
// fetch of the same URL. Both fields are optional.
type RevalidationToken struct {
	ETag         string
	LastModified string
}

func (t RevalidationToken) IsZero() bool {
	return t.ETag == "" && t.LastModified == ""
}

// FetchResult is a successfully fetched HTML page.
type FetchResult struct {
	URL   string
	Body  []byte
	Token RevalidationToken
}

// Fetcher performs single conditional GET requests. It holds no per-request
// state and is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch performs a GET with the configured user agent and, when token is
// non-nil, conditional request headers. Redirects are followed
// transparently; the final response is what gets classified. Returns
// ErrNotModified on a 304 and *FetchError for everything else that went
// wrong.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, token *RevalidationToken) (*FetchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrConnection, URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	if token != nil {
		if token.ETag != "" {
			req.Header.Set("If-None-Match", token.ETag)
		}
		if token.LastModified != "" {
			req.Header.Set("If-Modified-Since", token.LastModified)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		slog.Debug("Page not modified", "url", rawURL)
		return nil, ErrNotModified
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &FetchError{Kind: FetchErrHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, &FetchError{Kind: FetchErrUnsupportedContent, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &FetchError{Kind: FetchErrConnection, URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &FetchResult{
		URL:  rawURL,
		Body: body,
		Token: RevalidationToken{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		},
	}, nil
}

func classifyTransportError(rawURL string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchErrTimeout, URL: rawURL, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: FetchErrTimeout, URL: rawURL, Err: err}
	}

	return &FetchError{Kind: FetchErrConnection, URL: rawURL, Err: err}
}
