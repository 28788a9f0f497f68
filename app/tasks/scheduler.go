package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/achirkof/newscatcher/app/article"
	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/cfg"
	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/crawler"
	"github.com/achirkof/newscatcher/app/database"
	"github.com/achirkof/newscatcher/app/parser"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache   *config.SourceConfigCache
	sourceRepo    database.SourceRepository
	articleRepo   database.ArticleRepository
	criterionRepo database.CriterionRepository
	jobRepo       database.JobRepository
	webCrawler    *crawler.Crawler
	httpClient    *http.Client
	userAgent     string
	feedParser    *parser.Parser
	processor     *article.Processor
	appCache      *cache.Cache
	interval      time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface

	// inflight tracks sources with a crawl queued or running so a slow
	// crawl is never stacked behind a second one for the same source.
	inflightMu sync.Mutex
	inflight   map[string]bool
}

func NewScheduler(configCache *config.SourceConfigCache, sourceRepo database.SourceRepository,
	articleRepo database.ArticleRepository, criterionRepo database.CriterionRepository,
	jobRepo database.JobRepository, webCrawler *crawler.Crawler, httpClient *http.Client,
	feedParser *parser.Parser, processor *article.Processor, appCache *cache.Cache) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:   configCache,
		sourceRepo:    sourceRepo,
		articleRepo:   articleRepo,
		criterionRepo: criterionRepo,
		jobRepo:       jobRepo,
		webCrawler:    webCrawler,
		httpClient:    httpClient,
		userAgent:     cfg.UserAgent,
		feedParser:    feedParser,
		processor:     processor,
		appCache:      appCache,
		interval:      time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:   cfg.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
		inflight:      make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueCrawl queues a crawl for a named source unless one is already
// queued or running for it.
func (s *Scheduler) EnqueueCrawl(sourceName string) error {
	sourceConfig, err := s.configCache.GetConfig(sourceName)
	if err != nil {
		return err
	}
	return s.enqueueCrawl(sourceName, sourceConfig)
}

// EnqueueRescore queues a rescoring pass over all stored articles.
func (s *Scheduler) EnqueueRescore() error {
	return s.EnqueueTask(NewRescoreArticlesTask(s.articleRepo, s.criterionRepo, s.processor, s.appCache))
}

func (s *Scheduler) enqueueCrawl(sourceName string, sourceConfig *config.SourceConfig) error {
	if !s.beginCrawl(sourceName) {
		slog.Debug("Crawl already in flight, skipping", "source", sourceName)
		return nil
	}

	task := NewCrawlSourceTask(sourceName, sourceConfig, s.webCrawler, s.httpClient, s.userAgent,
		s.feedParser, s.processor, s.sourceRepo, s.articleRepo, s.criterionRepo, s.jobRepo, s.appCache)
	if err := s.EnqueueTask(task); err != nil {
		s.endCrawl(sourceName)
		return err
	}
	return nil
}

func (s *Scheduler) beginCrawl(sourceName string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight[sourceName] {
		return false
	}
	s.inflight[sourceName] = true
	return true
}

func (s *Scheduler) endCrawl(sourceName string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, sourceName)
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Processing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceConfigTask(sourceConfig.Name, sourceConfig, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceConfigTask", "source", sourceConfig.Name, "error", err)
			continue
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()

	for _, sourceConfig := range sourceConfigs {
		source, err := s.sourceRepo.GetSource(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if source == nil {
			slog.Warn("Source not found in database, skipping", "source", sourceConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if source.NextCrawlAt != nil && source.NextCrawlAt.After(now) {
			slog.Debug("Source not due for crawl yet", "source", sourceConfig.Name, "next_crawl_at", source.NextCrawlAt)
			continue
		}

		if err := s.enqueueCrawl(sourceConfig.Name, sourceConfig); err != nil {
			slog.Warn("Failed to enqueue CrawlSourceTask", "source", sourceConfig.Name, "error", err)
		}

		// Discovery runs on the crawl cadence, never every tick: each task
		// fetches the seed page live.
		if sourceConfig.Settings.DiscoverSubdomains {
			discoverTask := NewDiscoverSubdomainsTask(sourceConfig.Name, s.webCrawler, s.sourceRepo)
			if err := s.EnqueueTask(discoverTask); err != nil {
				slog.Warn("Failed to enqueue DiscoverSubdomainsTask", "source", sourceConfig.Name, "error", err)
			}
		}
	}

	s.enqueueSubdomainCrawls()
}

// enqueueSubdomainCrawls queues crawls for discovered subdomain sources.
// A subdomain has no configuration file of its own; it inherits the crawl
// settings of the source whose crawl found it.
func (s *Scheduler) enqueueSubdomainCrawls() {
	sources, err := s.sourceRepo.GetSourcesDueForCrawl()
	if err != nil {
		slog.Warn("Failed to get sources due for crawl", "error", err)
		return
	}

	for _, source := range sources {
		if !source.IsSubdomain || source.ParentSourceID == nil {
			continue
		}

		parent, err := s.sourceRepo.GetSourceByID(*source.ParentSourceID)
		if err != nil || parent == nil {
			slog.Warn("Failed to resolve subdomain parent, skipping", "source", source.Name, "error", err)
			continue
		}

		parentConfig, err := s.configCache.GetConfig(parent.Name)
		if err != nil {
			slog.Debug("No configuration for subdomain parent, skipping", "source", source.Name, "parent", parent.Name)
			continue
		}

		subConfig := *parentConfig
		subConfig.Name = source.Name
		subConfig.URL = source.URL
		subConfig.Settings.DiscoverSubdomains = false

		if err := s.enqueueCrawl(source.Name, &subConfig); err != nil {
			slog.Warn("Failed to enqueue subdomain crawl", "source", source.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.taskFinished(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.taskFinished(task)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.taskFinished(task)
			return
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				s.taskFinished(task)
			}
		}
	}()
}

// taskFinished releases per-source bookkeeping once a task will not run
// again.
func (s *Scheduler) taskFinished(task TaskInterface) {
	if task.GetType() == TaskTypeCrawlSource {
		s.endCrawl(task.GetSourceName())
	}
}
