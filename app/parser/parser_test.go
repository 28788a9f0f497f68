package parser

import (
	"strings"
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://news.example.com</link>
    <description>Latest stories</description>
    <language>en-us</language>
    <item>
      <title>First Story</title>
      <link>https://news.example.com/first</link>
      <description>Summary of the first story with enough words to read.</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second Story</title>
      <link>https://news.example.com/second</link>
      <description><![CDATA[<p>An <b>HTML</b> fragment   body.</p>]]></description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, articles, err := parser.Parse([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Example News" {
		t.Errorf("Expected title 'Example News', got '%s'", metadata.Title)
	}
	if metadata.Link != "https://news.example.com" {
		t.Errorf("Expected link 'https://news.example.com', got '%s'", metadata.Link)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got '%s'", metadata.Language)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.URL != "https://news.example.com/first" {
		t.Errorf("Expected first article URL 'https://news.example.com/first', got '%s'", first.URL)
	}
	if first.Title != "First Story" {
		t.Errorf("Expected first article title 'First Story', got '%s'", first.Title)
	}
	if first.CrawledAt.Year() != 2023 {
		t.Errorf("Expected published date to be carried, got %v", first.CrawledAt)
	}

	second := articles[1]
	if second.Content != "An HTML fragment body." {
		t.Errorf("Expected markup stripped from content, got '%s'", second.Content)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Blog</title>
  <link href="https://blog.example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Atom Entry</title>
    <link href="https://blog.example.com/entry"/>
    <id>urn:uuid:1</id>
    <updated>2023-07-03T11:00:00Z</updated>
    <content type="html">&lt;p&gt;Entry body text.&lt;/p&gt;</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, articles, err := parser.Parse([]byte(atomData))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Example Blog" {
		t.Errorf("Expected title 'Example Blog', got '%s'", metadata.Title)
	}
	if metadata.Updated == nil {
		t.Error("Expected updated timestamp to be set")
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}
	if articles[0].Content != "Entry body text." {
		t.Errorf("Expected content 'Entry body text.', got '%s'", articles[0].Content)
	}
}

func TestParseDropsEntriesWithoutLinkOrTitle(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Sparse Feed</title>
    <link>https://example.com</link>
    <item>
      <title>Has Everything</title>
      <link>https://example.com/ok</link>
    </item>
    <item>
      <title>No Link</title>
    </item>
    <item>
      <link>https://example.com/no-title</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, articles, err := parser.Parse([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(articles))
	}
	if articles[0].URL != "https://example.com/ok" {
		t.Errorf("Expected surviving article 'https://example.com/ok', got '%s'", articles[0].URL)
	}
}

func TestParseInvalidData(t *testing.T) {
	parser := NewParser()
	if _, _, err := parser.Parse([]byte("not a feed at all")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
	if _, _, err := parser.Parse([]byte("")); err == nil {
		t.Error("Expected error for empty data")
	}
}

func TestDiscoverFeeds(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
  <link rel="alternate" type="application/rss+xml" href="/feed.xml">
  <link rel="alternate" type="application/atom+xml" href="https://example.com/atom.xml">
  <link rel="alternate" type="application/rss+xml" href="/feed.xml">
  <link rel="alternate" type="text/html" href="/mobile">
  <link rel="stylesheet" href="/style.css">
</head>
<body><p>Content</p></body>
</html>`

	feeds := DiscoverFeeds("https://example.com/news/", []byte(page))

	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d: %v", len(feeds), feeds)
	}
	if feeds[0] != "https://example.com/feed.xml" {
		t.Errorf("Expected relative href resolved against the site root, got '%s'", feeds[0])
	}
	if feeds[1] != "https://example.com/atom.xml" {
		t.Errorf("Expected absolute href kept as is, got '%s'", feeds[1])
	}
}

func TestDiscoverFeedsNoAlternates(t *testing.T) {
	page := `<html><head><title>Plain Page</title></head><body></body></html>`

	feeds := DiscoverFeeds("https://example.com", []byte(page))
	if len(feeds) != 0 {
		t.Errorf("Expected no feeds, got %v", feeds)
	}
}

func TestStripMarkupPlainText(t *testing.T) {
	got := stripMarkup("plain   text\nwith   gaps")
	if got != "plain text with gaps" {
		t.Errorf("Expected collapsed whitespace, got '%s'", got)
	}
	if !strings.Contains(stripMarkup("<div>nested <span>tags</span></div>"), "nested tags") {
		t.Error("Expected tags removed from fragment")
	}
}
