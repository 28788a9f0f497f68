package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxLinksPerPage caps the branching factor so link-dense pages cannot
// explode the traversal.
const maxLinksPerPage = 10

// Target identifies one crawl entry point.
type Target struct {
	SeedURL     string
	Host        string
	IsSubdomain bool
	// Token holds the revalidation token from the previous crawl of this
	// target, nil on the first crawl.
	Token *RevalidationToken
	// RateLimitDelay overrides the crawler-wide pacing delay for this
	// session when positive.
	RateLimitDelay time.Duration
}

// Budget bounds how much of a site a single session may traverse.
type Budget struct {
	// MaxDepth is the deepest link level visited, seed at depth 0.
	MaxDepth int
	// MaxPages caps the collected articles: fetching stops once this many
	// articles have been extracted. Pages that yield no article do not
	// consume the budget.
	MaxPages int
}

func (b Budget) validate() error {
	if b.MaxDepth < 0 {
		return fmt.Errorf("max depth must be non-negative, got %d", b.MaxDepth)
	}
	if b.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1, got %d", b.MaxPages)
	}
	return nil
}

// Stats is the per-session status summary.
type Stats struct {
	PagesFetched  int
	ArticlesFound int
}

// Result is the outcome of one crawl session. On cancellation or abort the
// articles collected so far are still returned.
type Result struct {
	Articles []*Article
	// Token is the revalidation token for the seed page: the fresh one when
	// the seed was fetched, the prior one when the server reported it
	// unchanged.
	Token RevalidationToken
	// SeedBody is the seed page HTML, nil when the seed was unchanged or
	// failed. Kept so callers can inspect the seed (feed autodiscovery)
	// without a second fetch.
	SeedBody []byte
	Stats    Stats
}

// Crawler traverses a single domain depth-first within a budget. Each call
// to Crawl runs an independent session with its own visited set and
// per-host pacing table, so concurrent sessions for distinct targets never
// interact.
type Crawler struct {
	fetcher        *Fetcher
	extractor      *Extractor
	rateLimitDelay time.Duration
}

func NewCrawler(fetcher *Fetcher, extractor *Extractor, rateLimitDelay time.Duration) *Crawler {
	return &Crawler{
		fetcher:        fetcher,
		extractor:      extractor,
		rateLimitDelay: rateLimitDelay,
	}
}

// node is one pending traversal step.
type node struct {
	url   string
	depth int
}

// session holds the state of one Crawl call.
type session struct {
	host      string
	budget    Budget
	delay     time.Duration
	visited   map[string]bool
	lastFetch map[string]time.Time
	articles  []*Article
	stats     Stats
	token     RevalidationToken
	seedBody  []byte
}

// Crawl visits pages starting at the target seed, depth-first, collecting
// extracted articles until the budget runs out. Per-page failures are
// logged and skipped. Returns partial results alongside the error when the
// session is cancelled.
func (c *Crawler) Crawl(ctx context.Context, target Target, budget Budget) (*Result, error) {
	if err := budget.validate(); err != nil {
		return &Result{}, err
	}

	host := target.Host
	if host == "" {
		host = HostOf(target.SeedURL)
	}

	s := &session{
		host:      host,
		budget:    budget,
		delay:     c.rateLimitDelay,
		visited:   make(map[string]bool),
		lastFetch: make(map[string]time.Time),
	}
	if target.RateLimitDelay > 0 {
		s.delay = target.RateLimitDelay
	}
	if target.Token != nil {
		s.token = *target.Token
	}

	slog.Info("Starting crawl session",
		"url", target.SeedURL,
		"max_depth", budget.MaxDepth,
		"max_pages", budget.MaxPages)

	// Explicit worklist instead of recursion: keeps stack depth bounded and
	// makes budget and cancellation checks uniform at every expansion point.
	stack := []node{{url: target.SeedURL, depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return s.result(), err
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.depth > budget.MaxDepth || len(s.articles) >= budget.MaxPages {
			continue
		}
		if s.visited[n.url] {
			continue
		}
		s.visited[n.url] = true

		body, ok := c.fetchPage(ctx, s, n, target)
		if !ok {
			continue
		}
		s.stats.PagesFetched++

		if article := c.extractor.Run(n.url, body); article != nil {
			s.articles = append(s.articles, article)
			s.stats.ArticlesFound++
		}

		if n.depth < budget.MaxDepth {
			children := c.childLinks(s, n.url, body)
			// Push in reverse so the first discovered link is visited next.
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, node{url: children[i], depth: n.depth + 1})
			}
		}
	}

	slog.Info("Crawl session finished",
		"url", target.SeedURL,
		"pages_fetched", s.stats.PagesFetched,
		"articles_found", s.stats.ArticlesFound)

	return s.result(), nil
}

// DiscoverSubdomains fetches only the seed URL and returns every outbound
// link whose host looks like a subdomain of the seed host. Intentionally
// shallow: the point is discovery, not content collection.
func (c *Crawler) DiscoverSubdomains(ctx context.Context, seedURL string) ([]string, error) {
	baseHost := HostOf(seedURL)
	if baseHost == "" {
		return nil, fmt.Errorf("cannot determine host of %q", seedURL)
	}

	result, err := c.fetcher.Fetch(ctx, seedURL, nil)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			return nil, nil
		}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			slog.Warn("Subdomain discovery fetch failed", "url", seedURL, "error", err)
			return nil, nil
		}
		return nil, err
	}

	subdomains := SubdomainLinks(seedURL, result.Body, baseHost)

	slog.Info("Subdomain discovery finished", "url", seedURL, "found", len(subdomains))
	return subdomains, nil
}

// SubdomainLinks returns the deduplicated links on a page whose host is a
// subdomain of baseHost.
func SubdomainLinks(pageURL string, body []byte, baseHost string) []string {
	seen := make(map[string]bool)
	var subdomains []string
	for _, link := range harvestLinks(pageURL, body) {
		if !IsSubdomainOf(link, baseHost) || seen[link] {
			continue
		}
		seen[link] = true
		subdomains = append(subdomains, link)
	}
	return subdomains
}

// fetchPage applies per-host pacing, fetches one page, and classifies the
// outcome. Returns the body and true only when HTML was retrieved.
func (c *Crawler) fetchPage(ctx context.Context, s *session, n node, target Target) ([]byte, bool) {
	if err := c.pace(ctx, s, HostOf(n.url)); err != nil {
		return nil, false
	}

	// Only the seed page is fetched conditionally: that is where the
	// target's revalidation token belongs.
	var token *RevalidationToken
	if n.depth == 0 && target.Token != nil && !target.Token.IsZero() {
		token = target.Token
	}

	result, err := c.fetcher.Fetch(ctx, n.url, token)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			// Prior content still valid; nothing to re-extract and no body
			// to discover links in. The prior token stays in effect.
			slog.Debug("Skipping unmodified page", "url", n.url)
			return nil, false
		}
		slog.Warn("Page fetch failed", "url", n.url, "depth", n.depth, "error", err)
		return nil, false
	}

	if n.depth == 0 {
		s.seedBody = result.Body
		if !result.Token.IsZero() {
			s.token = result.Token
		}
	}

	return result.Body, true
}

// pace sleeps the session delay before a repeat fetch to a host already
// contacted in this session.
func (c *Crawler) pace(ctx context.Context, s *session, host string) error {
	if _, contacted := s.lastFetch[host]; contacted && s.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
	s.lastFetch[host] = time.Now()
	return nil
}

// childLinks returns the same-host, not-yet-visited links on a page, capped
// at maxLinksPerPage.
func (c *Crawler) childLinks(s *session, pageURL string, body []byte) []string {
	var children []string
	for _, link := range harvestLinks(pageURL, body) {
		if !SameHost(link, s.host) || s.visited[link] {
			continue
		}
		children = append(children, link)
		if len(children) >= maxLinksPerPage {
			break
		}
	}
	return children
}

// harvestLinks parses anchor hrefs and resolves them against the page URL.
func harvestLinks(pageURL string, body []byte) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})

	return links
}

func (s *session) result() *Result {
	return &Result{
		Articles: s.articles,
		Token:    s.token,
		SeedBody: s.seedBody,
		Stats:    s.stats,
	}
}
