package crawler

import (
	"strings"
	"testing"
)

// longParagraph is comfortably over both the 50-char block threshold and
// the 100-char article threshold.
const longParagraph = "This paragraph carries enough words to pass the minimum meaningful content length check applied by the extractor heuristics."

func TestExtractor_ArticleFromContentDiv(t *testing.T) {
	html := `<html><head><title>Doc Title</title></head><body>
		<h1>Article Headline</h1>
		<div class="article-content"><p>` + longParagraph + `</p></div>
	</body></html>`

	extractor := NewExtractor()
	article := extractor.Run("https://example.com/post", []byte(html))
	if article == nil {
		t.Fatal("Expected an article, got nil")
	}

	if article.Title != "Article Headline" {
		t.Errorf("Expected h1 to win as title, got %q", article.Title)
	}
	if !strings.Contains(article.Content, "enough words") {
		t.Errorf("Expected content from the content div, got %q", article.Content)
	}
	if article.URL != "https://example.com/post" {
		t.Errorf("Expected source URL to be preserved, got %q", article.URL)
	}
	if article.CrawledAt.IsZero() {
		t.Error("Expected extraction timestamp to be set")
	}
}

func TestExtractor_TitleFallback(t *testing.T) {
	html := `<html><head><title>Only The Title Element</title></head><body>
		<div class="post"><p>` + longParagraph + `</p></div>
	</body></html>`

	article := NewExtractor().Run("https://example.com/post", []byte(html))
	if article == nil {
		t.Fatal("Expected an article, got nil")
	}
	if article.Title != "Only The Title Element" {
		t.Errorf("Expected title element fallback, got %q", article.Title)
	}
}

func TestExtractor_NoTitleReturnsNil(t *testing.T) {
	html := `<html><body><div class="content"><p>` + longParagraph + `</p></div></body></html>`

	article := NewExtractor().Run("https://example.com/post", []byte(html))
	if article != nil {
		t.Errorf("Expected nil for page with no h1 and no title element, got %+v", article)
	}
}

func TestExtractor_ShortBodyReturnsNil(t *testing.T) {
	// Body text over the block threshold but under the article threshold.
	html := `<html><body>
		<h1>Short Page</h1>
		<div class="content"><p>Fifty-one characters of text is just barely enough here.</p></div>
	</body></html>`

	extractor := NewExtractor()
	extractor.ReadabilityFallback = false

	article := extractor.Run("https://example.com/short", []byte(html))
	if article != nil {
		t.Errorf("Expected nil for body at or under %d chars, got %+v", minContentLength, article)
	}
}

func TestExtractor_ShortBlocksDiscarded(t *testing.T) {
	html := `<html><body>
		<h1>Headline</h1>
		<div class="entry">
			<p>Tiny caption</p>
			<p>` + longParagraph + `</p>
		</div>
	</body></html>`

	article := NewExtractor().Run("https://example.com/post", []byte(html))
	if article == nil {
		t.Fatal("Expected an article, got nil")
	}
	if strings.Contains(article.Content, "Tiny caption") {
		t.Error("Blocks at or under 50 chars should be discarded")
	}
}

func TestExtractor_ParagraphFallback(t *testing.T) {
	// No content-like containers at all: paragraphs are the fallback.
	html := `<html><body>
		<h1>Plain Page</h1>
		<p>` + longParagraph + `</p>
		<p>` + longParagraph + `</p>
	</body></html>`

	article := NewExtractor().Run("https://example.com/plain", []byte(html))
	if article == nil {
		t.Fatal("Expected an article from paragraph fallback, got nil")
	}
	if !strings.Contains(article.Content, "\n\n") {
		t.Error("Expected kept blocks to be joined with a blank-line separator")
	}
}

func TestExtractor_StripsStructuralNoise(t *testing.T) {
	html := `<html><body>
		<nav><p>Navigation menu entries that would otherwise look like a perfectly valid long content block.</p></nav>
		<header><p>Header boilerplate that is long enough to pass the block length threshold if it were kept.</p></header>
		<h1>Real Headline</h1>
		<div class="article"><p>` + longParagraph + `</p></div>
		<footer><p>Footer boilerplate that is also long enough to pass the block length threshold if kept around.</p></footer>
		<script>var x = "script text that should never appear in extracted article content at all";</script>
	</body></html>`

	article := NewExtractor().Run("https://example.com/noisy", []byte(html))
	if article == nil {
		t.Fatal("Expected an article, got nil")
	}
	for _, noise := range []string{"Navigation menu", "Header boilerplate", "Footer boilerplate", "script text"} {
		if strings.Contains(article.Content, noise) {
			t.Errorf("Expected %q to be stripped from content", noise)
		}
	}
}
