package database

import (
	"time"
)

// Source represents a crawl source record in the database. Subdomain
// sources carry the ID of the source whose crawl discovered them.
type Source struct {
	ID             string // Database UUID
	Name           string // Configuration source identifier derived from filename
	URL            string // Seed URL
	Host           string // Host the traversal is scoped to
	IsSubdomain    bool
	ParentSourceID *string
	Enabled        bool
	LastETag       string // Validator from the last seed fetch
	LastModified   string
	LastCrawledAt  *time.Time
	NextCrawlAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Article represents a stored article record
type Article struct {
	ID              string
	SourceID        string
	URL             string
	Title           string
	Content         string
	Summary         string
	ContentHash     string
	Categories      []string
	Tags            []string
	RelevanceScores map[string]float64 // criterion ID -> score
	IsSeen          bool
	IsActive        bool
	CrawledAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Criterion represents a stored relevance criterion
type Criterion struct {
	ID        string
	Name      string
	Keywords  []string
	Prompt    string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Crawl job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// CrawlJob records one crawl run of a source
type CrawlJob struct {
	ID              string
	SourceID        string
	Status          string
	PagesFetched    int
	ArticlesFound   int
	SubdomainsFound int
	ErrorMessage    string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
}
