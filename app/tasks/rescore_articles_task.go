package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/achirkof/newscatcher/app/article"
	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/database"
)

type RescoreArticlesTask struct {
	Task
	articleRepo   database.ArticleRepository
	criterionRepo database.CriterionRepository
	processor     *article.Processor
	appCache      *cache.Cache
}

func NewRescoreArticlesTask(articleRepo database.ArticleRepository, criterionRepo database.CriterionRepository,
	processor *article.Processor, appCache *cache.Cache) *RescoreArticlesTask {
	return &RescoreArticlesTask{
		Task:          NewTask(TaskTypeRescoreArticles, ""),
		articleRepo:   articleRepo,
		criterionRepo: criterionRepo,
		processor:     processor,
		appCache:      appCache,
	}
}

// Execute recomputes the relevance scores of every stored article against
// the current criteria. Runs after criteria change, so scores stay
// comparable without recrawling.
func (t *RescoreArticlesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, err := t.criterionRepo.GetCriteria(true)
	if err != nil {
		return fmt.Errorf("failed to load criteria: %w", err)
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

	texts, err := t.articleRepo.GetStoredTexts()
	if err != nil {
		return fmt.Errorf("failed to load stored articles: %w", err)
	}

	updated := 0
	errorCount := 0
	for _, text := range texts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		scores := t.processor.Rescore(text.Title, text.Summary, criteria)
		if err := t.articleRepo.UpdateScores(text.ID, scores); err != nil {
			slog.Error("Failed to update article scores", "article_id", text.ID, "error", err)
			errorCount++
			continue
		}
		updated++
	}

	if updated > 0 {
		if err := t.appCache.InvalidateArticles(ctx); err != nil {
			slog.Warn("Failed to invalidate article cache", "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "RescoreArticles",
		"duration", t.GetDuration(),
		"articles", len(texts),
		"success", updated,
		"errors", errorCount)

	return nil
}
