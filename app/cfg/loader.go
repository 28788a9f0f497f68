package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"newscatcher" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"newscatcher_pass" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"newscatcher" description:"Database name"`

	// Redis cache
	RedisURL string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for response caching (optional, caching disabled when empty)"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for crawl processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Crawling configuration
	UserAgent      string  `long:"user-agent" env:"USER_AGENT" default:"NewsCatcher/1.0 (+https://github.com/achirkof/newscatcher)" description:"User agent string for HTTP requests"`
	RequestTimeout int     `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Per-request timeout in seconds"`
	RateLimitDelay float64 `long:"rate-limit-delay" env:"RATE_LIMIT_DELAY" default:"1.0" description:"Delay in seconds between requests to the same host"`
	MaxDepth       int     `long:"max-depth" env:"MAX_DEPTH" default:"3" description:"Default maximum link depth per crawl session"`
	MaxPages       int     `long:"max-pages" env:"MAX_PAGES" default:"50" description:"Default maximum pages per crawl session"`

	// Enrichment service
	EnrichURL    string `long:"enrich-url" env:"ENRICH_URL" description:"Enrichment service endpoint (optional, fallback summaries when empty)"`
	EnrichAPIKey string `long:"enrich-api-key" env:"ENRICH_API_KEY" description:"Enrichment service API key"`

	// Relevance matching
	MatchThreshold int     `long:"match-threshold" env:"MATCH_THRESHOLD" default:"85" description:"Fuzzy match similarity threshold (0-100)"`
	MatchBoost     float64 `long:"match-boost" env:"MATCH_BOOST" default:"1.2" description:"Score boost applied when multiple keywords match exactly"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		RedisURL:          raw.RedisURL,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		RequestTimeout:    raw.RequestTimeout,
		RateLimitDelay:    raw.RateLimitDelay,
		MaxDepth:          raw.MaxDepth,
		MaxPages:          raw.MaxPages,
		EnrichURL:         raw.EnrichURL,
		EnrichAPIKey:      raw.EnrichAPIKey,
		MatchThreshold:    raw.MatchThreshold,
		MatchBoost:        raw.MatchBoost,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
