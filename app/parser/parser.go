package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/achirkof/newscatcher/app/crawler"
)

// Parser handles parsing of RSS/Atom feeds discovered on crawled sites.
type Parser struct {
	gofeedParser *gofeed.Parser
}

// NewParser creates a new feed parser
func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Parse parses feed data and returns the feed metadata and its entries
// converted to articles. Entries without a link are dropped; entries
// without a title are dropped too, matching what the page extractor
// requires of crawled pages.
func (p *Parser) Parse(data []byte) (*FeedMetadata, []*crawler.Article, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &FeedMetadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}
	if feed.UpdatedParsed != nil {
		metadata.Updated = feed.UpdatedParsed
	}

	articles := make([]*crawler.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article := p.itemToArticle(item)
		if article == nil {
			continue
		}
		articles = append(articles, article)
	}

	slog.Debug("Parsed feed", "title", metadata.Title, "entries", len(feed.Items), "articles", len(articles))
	return metadata, articles, nil
}

// itemToArticle converts a feed entry to an article. Feed bodies are often
// HTML fragments, so the markup is stripped before the text is carried
// further.
func (p *Parser) itemToArticle(item *gofeed.Item) *crawler.Article {
	if item.Link == "" || item.Title == "" {
		return nil
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	article := &crawler.Article{
		URL:       item.Link,
		Title:     strings.TrimSpace(item.Title),
		Content:   stripMarkup(content),
		CrawledAt: time.Now().UTC(),
	}
	if item.PublishedParsed != nil {
		article.CrawledAt = item.PublishedParsed.UTC()
	}
	return article
}

// stripMarkup reduces an HTML fragment to its visible text with collapsed
// whitespace. Plain text passes through unchanged apart from whitespace
// normalization.
func stripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
