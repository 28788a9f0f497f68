package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/database"
)

const (
	defaultArticlePageSize = 20
	maxArticlePageSize     = 100
	articleCacheTTL        = 60 * time.Second
)

func NewHandler(configCache *config.SourceConfigCache, sourceRepo database.SourceRepository,
	articleRepo database.ArticleRepository, criterionRepo database.CriterionRepository,
	jobRepo database.JobRepository, appCache *cache.Cache, scheduler SchedulerInterface) *Handler {
	return &Handler{
		configCache:   configCache,
		sourceRepo:    sourceRepo,
		articleRepo:   articleRepo,
		criterionRepo: criterionRepo,
		jobRepo:       jobRepo,
		appCache:      appCache,
		scheduler:     scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if total, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources_total"] = total
	}
	if enabled, err := h.sourceRepo.GetEnabledSourceCount(); err == nil {
		stats["sources_enabled"] = enabled
	}
	if articles, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles_total"] = articles
	}
	if unseen, err := h.articleRepo.GetUnseenCount(); err == nil {
		stats["articles_unseen"] = unseen
	}
	if running, err := h.jobRepo.GetRunningJobCount(); err == nil {
		stats["jobs_running"] = running
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":                sourceConfig.Name,
			"url":                 sourceConfig.URL,
			"enabled":             sourceConfig.Settings.Enabled,
			"max_depth":           sourceConfig.Settings.MaxDepth,
			"max_pages":           sourceConfig.Settings.MaxPages,
			"crawl_interval":      sourceConfig.Settings.GetCrawlInterval().String(),
			"discover_subdomains": sourceConfig.Settings.DiscoverSubdomains,
		}

		if source, err := h.sourceRepo.GetSource(sourceConfig.Name); err == nil && source != nil {
			sourceInfo["host"] = source.Host
			sourceInfo["last_crawled_at"] = source.LastCrawledAt
			sourceInfo["next_crawl_at"] = source.NextCrawlAt
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIGetSourceDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	source, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if source == nil {
		slog.Error("Source not found in database", "source", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":                name,
		"url":                 sourceConfig.URL,
		"enabled":             sourceConfig.Settings.Enabled,
		"max_depth":           sourceConfig.Settings.MaxDepth,
		"max_pages":           sourceConfig.Settings.MaxPages,
		"crawl_interval":      sourceConfig.Settings.GetCrawlInterval().String(),
		"discover_subdomains": sourceConfig.Settings.DiscoverSubdomains,
		"ingest_feeds":        sourceConfig.Settings.IngestFeeds,
	}

	details["database"] = map[string]interface{}{
		"id":              source.ID,
		"host":            source.Host,
		"is_subdomain":    source.IsSubdomain,
		"last_etag":       source.LastETag,
		"last_modified":   source.LastModified,
		"last_crawled_at": source.LastCrawledAt,
		"next_crawl_at":   source.NextCrawlAt,
		"created_at":      source.CreatedAt,
		"updated_at":      source.UpdatedAt,
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APITriggerCrawl(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueCrawl(name); err != nil {
		slog.Error("Failed to enqueue crawl", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue crawl"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Crawl queued",
		"source":  name,
	})
}

func (h *Handler) APISetSourceEnabled(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	source, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	if err := h.sourceRepo.SetSourceEnabled(source.ID, *req.Enabled); err != nil {
		slog.Error("Database error", "operation", "set_source_enabled", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": name, "enabled": *req.Enabled})
}

func (h *Handler) APIListArticles(c *gin.Context) {
	limit := parseIntParam(c, "limit", defaultArticlePageSize)
	if limit < 1 || limit > maxArticlePageSize {
		limit = defaultArticlePageSize
	}
	offset := parseIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	onlyUnseen := c.Query("unseen") == "true"

	cacheKey := cache.ArticleListKey(limit, offset, onlyUnseen)

	var articles []database.Article
	hit, err := h.appCache.Get(c.Request.Context(), cacheKey, &articles)
	if err != nil {
		slog.Warn("Article cache read failed", "key", cacheKey, "error", err)
	}

	if !hit {
		articles, err = h.articleRepo.GetArticles(limit, offset, onlyUnseen)
		if err != nil {
			slog.Error("Database error", "operation", "get_articles", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if err := h.appCache.Set(c.Request.Context(), cacheKey, articles, articleCacheTTL); err != nil {
			slog.Warn("Article cache write failed", "key", cacheKey, "error", err)
		}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
		"limit":    limit,
		"offset":   offset,
		"cached":   hit,
	})
}

func (h *Handler) APIMarkArticleSeen(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing article id parameter"})
		return
	}

	if err := h.articleRepo.MarkSeen(id); err != nil {
		slog.Error("Database error", "operation", "mark_seen", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.appCache.InvalidateArticles(c.Request.Context()); err != nil {
		slog.Warn("Failed to invalidate article cache", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article marked as seen", "id": id})
}

func (h *Handler) APIDeactivateArticle(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing article id parameter"})
		return
	}

	if err := h.articleRepo.DeactivateArticle(id); err != nil {
		slog.Error("Database error", "operation", "deactivate_article", "article_id", id, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	if err := h.appCache.InvalidateArticles(c.Request.Context()); err != nil {
		slog.Warn("Failed to invalidate article cache", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article removed", "id": id})
}

func (h *Handler) APIListCriteria(c *gin.Context) {
	criteria, err := h.criterionRepo.GetCriteria(false)
	if err != nil {
		slog.Error("Database error", "operation", "get_criteria", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"criteria": criteria,
		"total":    len(criteria),
	})
}

type criterionRequest struct {
	Name     string   `json:"name" binding:"required"`
	Keywords []string `json:"keywords"`
	Prompt   string   `json:"prompt"`
	Active   *bool    `json:"active"`
}

func (h *Handler) APIGetCriterion(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing criterion id parameter"})
		return
	}

	criterion, err := h.criterionRepo.GetCriterion(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_criterion", "criterion_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if criterion == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Criterion not found"})
		return
	}

	c.JSON(http.StatusOK, criterion)
}

func (h *Handler) APICreateCriterion(c *gin.Context) {
	var req criterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if len(req.Keywords) == 0 && req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Criterion needs keywords or a prompt"})
		return
	}

	id, err := h.criterionRepo.CreateCriterion(req.Name, req.Keywords, req.Prompt)
	if err != nil {
		slog.Error("Database error", "operation", "create_criterion", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.queueRescore()

	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

func (h *Handler) APIUpdateCriterion(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing criterion id parameter"})
		return
	}

	var req criterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	if err := h.criterionRepo.UpdateCriterion(id, req.Name, req.Keywords, req.Prompt, active); err != nil {
		slog.Error("Database error", "operation", "update_criterion", "criterion_id", id, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Criterion not found"})
		return
	}

	h.queueRescore()

	c.JSON(http.StatusOK, gin.H{"id": id, "name": req.Name})
}

func (h *Handler) APIDeleteCriterion(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing criterion id parameter"})
		return
	}

	if err := h.criterionRepo.DeleteCriterion(id); err != nil {
		slog.Error("Database error", "operation", "delete_criterion", "criterion_id", id, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Criterion not found"})
		return
	}

	h.queueRescore()

	c.JSON(http.StatusOK, gin.H{"message": "Criterion deleted", "id": id})
}

func (h *Handler) APIRescoreArticles(c *gin.Context) {
	if err := h.scheduler.EnqueueRescore(); err != nil {
		slog.Error("Failed to enqueue rescore", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue rescore"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Rescore queued"})
}

func (h *Handler) APIListJobs(c *gin.Context) {
	limit := parseIntParam(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	jobs, err := h.jobRepo.GetRecentJobs(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// queueRescore keeps stored scores aligned with the criteria after a
// change. Failure to queue is logged, not surfaced: the criterion change
// itself succeeded.
func (h *Handler) queueRescore() {
	if err := h.scheduler.EnqueueRescore(); err != nil {
		slog.Warn("Failed to enqueue rescore after criteria change", "error", err)
	}
}

func parseIntParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
