package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/crawler"
	"github.com/achirkof/newscatcher/app/database"
)

type SyncSourceConfigTask struct {
	Task
	SourceConfig *config.SourceConfig
	sourceRepo   database.SourceRepository
}

func NewSyncSourceConfigTask(sourceName string, sourceConfig *config.SourceConfig, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceName),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	host := crawler.HostOf(t.SourceConfig.URL)
	if host == "" {
		return fmt.Errorf("source %s has no resolvable host in URL %q", t.SourceName, t.SourceConfig.URL)
	}

	_, err := t.sourceRepo.UpsertSource(
		t.SourceConfig.Name,
		t.SourceConfig.URL,
		host,
		t.SourceConfig.Settings.Enabled)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSourceConfig", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.GetDuration())

	return nil
}
