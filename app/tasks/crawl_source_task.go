package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/achirkof/newscatcher/app/article"
	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/crawler"
	"github.com/achirkof/newscatcher/app/database"
	"github.com/achirkof/newscatcher/app/parser"
)

// maxFeedsPerSource caps how many advertised feeds are ingested per crawl.
const maxFeedsPerSource = 3

type CrawlSourceTask struct {
	Task
	SourceConfig  *config.SourceConfig
	webCrawler    *crawler.Crawler
	httpClient    *http.Client
	userAgent     string
	feedParser    *parser.Parser
	processor     *article.Processor
	sourceRepo    database.SourceRepository
	articleRepo   database.ArticleRepository
	criterionRepo database.CriterionRepository
	jobRepo       database.JobRepository
	appCache      *cache.Cache
}

func NewCrawlSourceTask(sourceName string, sourceConfig *config.SourceConfig, webCrawler *crawler.Crawler,
	httpClient *http.Client, userAgent string, feedParser *parser.Parser, processor *article.Processor,
	sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	criterionRepo database.CriterionRepository, jobRepo database.JobRepository, appCache *cache.Cache) *CrawlSourceTask {
	return &CrawlSourceTask{
		Task:          NewTask(TaskTypeCrawlSource, sourceName),
		SourceConfig:  sourceConfig,
		webCrawler:    webCrawler,
		httpClient:    httpClient,
		userAgent:     userAgent,
		feedParser:    feedParser,
		processor:     processor,
		sourceRepo:    sourceRepo,
		articleRepo:   articleRepo,
		criterionRepo: criterionRepo,
		jobRepo:       jobRepo,
		appCache:      appCache,
	}
}

func (t *CrawlSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	source, err := t.sourceRepo.GetSource(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}
	if source == nil {
		return fmt.Errorf("source %s not registered in database", t.SourceName)
	}

	jobID, err := t.jobRepo.CreateJob(source.ID)
	if err != nil {
		return fmt.Errorf("failed to create crawl job: %w", err)
	}
	if err := t.jobRepo.StartJob(jobID); err != nil {
		return fmt.Errorf("failed to start crawl job: %w", err)
	}

	target := crawler.Target{
		SeedURL:        t.SourceConfig.URL,
		Host:           source.Host,
		IsSubdomain:    source.IsSubdomain,
		RateLimitDelay: t.SourceConfig.Settings.GetRateLimitDelay(),
	}
	if source.LastETag != "" || source.LastModified != "" {
		target.Token = &crawler.RevalidationToken{
			ETag:         source.LastETag,
			LastModified: source.LastModified,
		}
	}

	result, err := t.webCrawler.Crawl(ctx, target, t.SourceConfig.Budget())
	if err != nil {
		// Articles collected before a cancellation or abort are still
		// valid; keep them best-effort before recording the failure.
		if result != nil && len(result.Articles) > 0 {
			if stored, storeErr := t.storeArticles(ctx, source.ID, result.Articles); storeErr != nil {
				slog.Warn("Failed to store partial crawl results", "source", t.SourceName, "error", storeErr)
			} else if stored > 0 {
				slog.Info("Stored partial crawl results", "source", t.SourceName, "stored", stored)
				if cacheErr := t.appCache.InvalidateArticles(ctx); cacheErr != nil {
					slog.Warn("Failed to invalidate article cache", "error", cacheErr)
				}
			}
		}
		if failErr := t.jobRepo.FailJob(jobID, err.Error()); failErr != nil {
			slog.Error("Failed to record crawl job failure", "job_id", jobID, "error", failErr)
		}
		return fmt.Errorf("crawl failed: %w", err)
	}

	articles := result.Articles
	if t.SourceConfig.Settings.IngestFeeds && result.SeedBody != nil {
		articles = append(articles, t.ingestFeeds(ctx, result.SeedBody)...)
	}

	stored, err := t.storeArticles(ctx, source.ID, articles)
	if err != nil {
		if failErr := t.jobRepo.FailJob(jobID, err.Error()); failErr != nil {
			slog.Error("Failed to record crawl job failure", "job_id", jobID, "error", failErr)
		}
		return err
	}

	subdomainsFound := 0
	if t.SourceConfig.Settings.DiscoverSubdomains && result.SeedBody != nil {
		subdomainsFound = t.registerSubdomains(source, result.SeedBody)
	}

	if err := t.sourceRepo.UpdateRevalidation(source.ID, result.Token.ETag, result.Token.LastModified); err != nil {
		slog.Warn("Failed to store revalidation data", "source", t.SourceName, "error", err)
	}

	nextCrawl := time.Now().UTC().Add(t.SourceConfig.Settings.GetCrawlInterval())
	if err := t.sourceRepo.UpdateNextCrawl(source.ID, nextCrawl); err != nil {
		slog.Warn("Failed to schedule next crawl", "source", t.SourceName, "error", err)
	}

	if err := t.jobRepo.CompleteJob(jobID, result.Stats.PagesFetched, stored, subdomainsFound); err != nil {
		slog.Warn("Failed to record crawl job completion", "job_id", jobID, "error", err)
	}

	if stored > 0 {
		if err := t.appCache.InvalidateArticles(ctx); err != nil {
			slog.Warn("Failed to invalidate article cache", "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "CrawlSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"pages_fetched", result.Stats.PagesFetched,
		"articles_found", len(articles),
		"stored", stored,
		"subdomains", subdomainsFound)

	return nil
}

// storeArticles runs the crawled articles through deduplication,
// enrichment, and scoring, then persists everything that is new or
// changed. Returns the number of stored articles.
func (t *CrawlSourceTask) storeArticles(ctx context.Context, sourceID string, articles []*crawler.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	known, err := t.articleRepo.GetKnownContent()
	if err != nil {
		return 0, fmt.Errorf("failed to load known content: %w", err)
	}

	criteria, err := t.loadActiveCriteria()
	if err != nil {
		return 0, err
	}

	processed := t.processor.Run(ctx, articles, article.KnownRecords{
		FingerprintByURL: known.HashByURL,
		URLByFingerprint: known.URLByHash,
	}, criteria)

	stored := 0
	for _, p := range processed {
		if p.Classification == article.ClassificationDuplicate {
			continue
		}

		_, err := t.articleRepo.UpsertArticle(sourceID, database.Article{
			URL:             p.Article.URL,
			Title:           p.Article.Title,
			Content:         p.Article.Content,
			Summary:         p.Summary,
			ContentHash:     p.Fingerprint,
			Categories:      p.Categories,
			Tags:            p.Tags,
			RelevanceScores: p.Scores,
			CrawledAt:       p.Article.CrawledAt,
		})
		if err != nil {
			return stored, fmt.Errorf("failed to store article %s: %w", p.Article.URL, err)
		}
		stored++
	}

	return stored, nil
}

func (t *CrawlSourceTask) loadActiveCriteria() ([]article.Criterion, error) {
	records, err := t.criterionRepo.GetCriteria(true)
	if err != nil {
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}

	criteria := make([]article.Criterion, len(records))
	for i, record := range records {
		criteria[i] = article.Criterion{
			ID:       record.ID,
			Name:     record.Name,
			Keywords: record.Keywords,
			Prompt:   record.Prompt,
			Active:   record.Active,
		}
	}
	return criteria, nil
}

// ingestFeeds pulls articles from the feeds the seed page advertises.
// Feed failures never fail the crawl.
func (t *CrawlSourceTask) ingestFeeds(ctx context.Context, seedBody []byte) []*crawler.Article {
	feeds := parser.DiscoverFeeds(t.SourceConfig.URL, seedBody)
	if len(feeds) > maxFeedsPerSource {
		feeds = feeds[:maxFeedsPerSource]
	}

	var articles []*crawler.Article
	for _, feedURL := range feeds {
		data, err := t.fetchFeed(ctx, feedURL)
		if err != nil {
			slog.Warn("Failed to fetch feed", "source", t.SourceName, "feed", feedURL, "error", err)
			continue
		}

		_, feedArticles, err := t.feedParser.Parse(data)
		if err != nil {
			slog.Warn("Failed to parse feed", "source", t.SourceName, "feed", feedURL, "error", err)
			continue
		}

		articles = append(articles, feedArticles...)
	}

	return articles
}

func (t *CrawlSourceTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// registerSubdomains records links to subdomains of the source host as
// crawlable sources of their own.
func (t *CrawlSourceTask) registerSubdomains(source *database.Source, seedBody []byte) int {
	subdomains := crawler.SubdomainLinks(t.SourceConfig.URL, seedBody, source.Host)

	registered := 0
	for _, subURL := range subdomains {
		host := crawler.HostOf(subURL)
		if host == "" {
			continue
		}

		if _, err := t.sourceRepo.RegisterSubdomain(source.ID, host, subURL, host); err != nil {
			slog.Warn("Failed to register subdomain", "source", t.SourceName, "subdomain", host, "error", err)
			continue
		}
		registered++
	}

	return registered
}
