package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/achirkof/newscatcher/app/crawler"
	"github.com/achirkof/newscatcher/app/database"
)

type DiscoverSubdomainsTask struct {
	Task
	webCrawler *crawler.Crawler
	sourceRepo database.SourceRepository
}

func NewDiscoverSubdomainsTask(sourceName string, webCrawler *crawler.Crawler, sourceRepo database.SourceRepository) *DiscoverSubdomainsTask {
	return &DiscoverSubdomainsTask{
		Task:       NewTask(TaskTypeDiscoverSubdomains, sourceName),
		webCrawler: webCrawler,
		sourceRepo: sourceRepo,
	}
}

func (t *DiscoverSubdomainsTask) Execute(ctx context.Context) error {
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

	subdomains, err := t.webCrawler.DiscoverSubdomains(ctx, source.URL)
	if err != nil {
		return fmt.Errorf("subdomain discovery failed: %w", err)
	}

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

	slog.Info("Task completed",
		"type", "DiscoverSubdomains",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"found", len(subdomains),
		"registered", registered)

	return nil
}
