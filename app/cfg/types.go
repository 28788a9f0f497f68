package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis cache (optional, caching is disabled when empty)
	RedisURL string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Crawling configuration
	UserAgent      string
	RequestTimeout int
	RateLimitDelay float64
	MaxDepth       int
	MaxPages       int

	// Enrichment service (optional, truncated-body summaries when empty)
	EnrichURL    string
	EnrichAPIKey string

	// Relevance matching
	MatchThreshold int
	MatchBoost     float64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
