package crawler

import (
	"bytes"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// minBlockLength filters out captions and link lists: a text block has
	// to be longer than this to count as article content.
	minBlockLength = 50
	// minContentLength distinguishes a real article from an error or
	// listing page.
	minContentLength = 100
)

var contentPattern = regexp.MustCompile(`content|article|post|entry`)

// Article is a single extracted page.
type Article struct {
	URL       string
	Title     string
	Content   string
	CrawledAt time.Time
}

// Extractor pulls (title, body) candidates out of raw HTML using
// boilerplate-stripping heuristics. Best effort: false negatives and false
// positives are expected.
type Extractor struct {
	// ReadabilityFallback re-runs the page through go-readability when the
	// heuristic pass finds a title but too little body text.
	ReadabilityFallback bool
}

func NewExtractor() *Extractor {
	return &Extractor{ReadabilityFallback: true}
}

// Run returns the extracted article, or nil when the page has no title or
// not enough body text to be one.
func (e *Extractor) Run(pageURL string, html []byte) *Article {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		slog.Warn("Failed to parse HTML", "url", pageURL, "error", err)
		return nil
	}

	// Structural noise, not content.
	doc.Find("script, style, nav, footer, header").Remove()

	title := normalizeText(doc.Find("h1").First().Text())
	if title == "" {
		title = normalizeText(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil
	}

	content := e.assembleContent(doc)

	if len(content) <= minContentLength && e.ReadabilityFallback {
		if fallback := e.readabilityContent(pageURL, html); len(fallback) > len(content) {
			content = fallback
		}
	}

	if len(content) <= minContentLength {
		return nil
	}

	return &Article{
		URL:       pageURL,
		Title:     title,
		Content:   content,
		CrawledAt: time.Now().UTC(),
	}
}

func (e *Extractor) assembleContent(doc *goquery.Document) string {
	candidates := doc.Find("article, main, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		tag := goquery.NodeName(s)
		if tag == "article" || tag == "main" {
			return true
		}
		class, _ := s.Attr("class")
		return contentPattern.MatchString(strings.ToLower(class))
	})

	if candidates.Length() == 0 {
		// Fallback: treat every paragraph as a candidate.
		candidates = doc.Find("p")
	}

	var blocks []string
	candidates.Each(func(_ int, s *goquery.Selection) {
		text := normalizeText(s.Text())
		if len(text) > minBlockLength {
			blocks = append(blocks, text)
		}
	})

	return strings.Join(blocks, "\n\n")
}

func (e *Extractor) readabilityContent(pageURL string, html []byte) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(html), parsedURL)
	if err != nil {
		slog.Debug("Readability fallback failed", "url", pageURL, "error", err)
		return ""
	}

	return normalizeText(article.TextContent)
}

// normalizeText trims and collapses runs of whitespace to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
