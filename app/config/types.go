package config

import (
	"time"

	"github.com/achirkof/newscatcher/app/crawler"
)

// SourceConfig represents a complete crawl source configuration
type SourceConfig struct {
	Name     string         `yaml:"-"`
	URL      string         `yaml:"url"`
	Settings SourceSettings `yaml:"settings"`
}

// SourceSettings contains per-source crawl settings
type SourceSettings struct {
	Enabled            bool    `yaml:"enabled"`
	CrawlInterval      int     `yaml:"crawl_interval"` // seconds
	MaxDepth           int     `yaml:"max_depth"`
	MaxPages           int     `yaml:"max_pages"`
	DiscoverSubdomains bool    `yaml:"discover_subdomains"`
	IngestFeeds        bool    `yaml:"ingest_feeds"`
	RateLimitDelay     float64 `yaml:"rate_limit_delay"` // seconds
}

// GetCrawlInterval returns the crawl interval as time.Duration
func (s *SourceSettings) GetCrawlInterval() time.Duration {
	if s.CrawlInterval <= 0 {
		return 3600 * time.Second // default 1 hour
	}
	return time.Duration(s.CrawlInterval) * time.Second
}

// GetRateLimitDelay returns the per-source pacing delay as time.Duration,
// zero when the source does not override the process-wide default.
func (s *SourceSettings) GetRateLimitDelay() time.Duration {
	if s.RateLimitDelay <= 0 {
		return 0
	}
	return time.Duration(s.RateLimitDelay * float64(time.Second))
}

// Budget returns the traversal budget this source allows
func (c *SourceConfig) Budget() crawler.Budget {
	return crawler.Budget{
		MaxDepth: c.Settings.MaxDepth,
		MaxPages: c.Settings.MaxPages,
	}
}
