package database

import (
	"time"
)

type SourceRepository interface {
	GetSource(sourceName string) (*Source, error)
	GetSourceByID(sourceID string) (*Source, error)
	GetAllSources() ([]Source, error)
	GetSourcesDueForCrawl() ([]Source, error)
	GetSourceCount() (int, error)
	GetEnabledSourceCount() (int, error)

	UpsertSource(sourceName, seedURL, host string, enabled bool) (string, error)
	RegisterSubdomain(parentSourceID, sourceName, seedURL, host string) (string, error)
	UpdateRevalidation(sourceID, etag, lastModified string) error
	UpdateNextCrawl(sourceID string, nextCrawl time.Time) error
	SetSourceEnabled(sourceID string, enabled bool) error
}

// KnownContent is what the deduplication step needs about the articles
// already stored for a source.
type KnownContent struct {
	HashByURL map[string]string
	URLByHash map[string]string
}

// StoredText is the stored article content the rescoring task rereads.
type StoredText struct {
	ID      string
	Title   string
	Summary string
}

type ArticleRepository interface {
	GetKnownContent() (*KnownContent, error)
	GetArticles(limit, offset int, onlyUnseen bool) ([]Article, error)
	GetArticleCount() (int, error)
	GetUnseenCount() (int, error)
	GetStoredTexts() ([]StoredText, error)

	UpsertArticle(sourceID string, article Article) (string, error)
	MarkSeen(articleID string) error
	UpdateScores(articleID string, scores map[string]float64) error
	DeactivateArticle(articleID string) error
}

type CriterionRepository interface {
	GetCriteria(activeOnly bool) ([]Criterion, error)
	GetCriterion(criterionID string) (*Criterion, error)

	CreateCriterion(name string, keywords []string, prompt string) (string, error)
	UpdateCriterion(criterionID, name string, keywords []string, prompt string, active bool) error
	DeleteCriterion(criterionID string) error
}

type JobRepository interface {
	CreateJob(sourceID string) (string, error)
	StartJob(jobID string) error
	CompleteJob(jobID string, pagesFetched, articlesFound, subdomainsFound int) error
	FailJob(jobID string, errorMessage string) error

	GetRecentJobs(limit int) ([]CrawlJob, error)
	GetRunningJobCount() (int, error)
}
