package parser

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

var feedContentTypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
}

// DiscoverFeeds finds the RSS/Atom feeds a page advertises through
// <link rel="alternate"> tags. Relative hrefs are resolved against the
// page URL; duplicates are dropped while preserving document order.
func DiscoverFeeds(pageURL string, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	feeds := []string{}

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		linkType, _ := s.Attr("type")
		if !feedContentTypes[linkType] {
			return
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		feedURL := resolved.String()
		if seen[feedURL] {
			return
		}
		seen[feedURL] = true
		feeds = append(feeds, feedURL)
	})

	return feeds
}
