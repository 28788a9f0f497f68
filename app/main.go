package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/achirkof/newscatcher/app/api"
	"github.com/achirkof/newscatcher/app/article"
	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/cfg"
	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/crawler"
	"github.com/achirkof/newscatcher/app/database"
	"github.com/achirkof/newscatcher/app/parser"
	"github.com/achirkof/newscatcher/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting NewsCatcher server", "version", appCfg.Version)

	slog.Info("Connecting to database", "host", appCfg.DBHost, "database", appCfg.DBName)
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	slog.Info("Loading source configurations", "dir", appCfg.SourcesDir)
	configCache := config.NewSourceConfigCache(appCfg.SourcesDir, appCfg.MaxDepth, appCfg.MaxPages)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	var appCache *cache.Cache
	if appCfg.RedisURL != "" {
		appCache, err = cache.NewCache(appCfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer appCache.Close()
	} else {
		slog.Info("Response caching disabled (REDIS_URL not set)")
	}

	sourceRepo := database.NewSourceRepository(db)
	articleRepo := database.NewArticleRepository(db)
	criterionRepo := database.NewCriterionRepository(db)
	jobRepo := database.NewJobRepository(db)

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.RequestTimeout) * time.Second,
	}

	fetcher := crawler.NewFetcher(httpClient, appCfg.UserAgent, time.Duration(appCfg.RequestTimeout)*time.Second)
	webCrawler := crawler.NewCrawler(fetcher, crawler.NewExtractor(),
		time.Duration(appCfg.RateLimitDelay*float64(time.Second)))

	var enricher article.Enricher
	if appCfg.EnrichURL != "" {
		enricher = article.NewHTTPEnricher(appCfg.EnrichURL, appCfg.EnrichAPIKey, httpClient)
	} else {
		slog.Info("Enrichment service not configured, using fallback summaries")
	}
	processor := article.NewProcessor(enricher, article.NewMatcher(appCfg.MatchThreshold, appCfg.MatchBoost))

	feedParser := parser.NewParser()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, sourceRepo, articleRepo, criterionRepo, jobRepo,
		webCrawler, httpClient, feedParser, processor, appCache)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, sourceRepo, articleRepo, criterionRepo, jobRepo, appCache, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
