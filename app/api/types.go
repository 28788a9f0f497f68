package api

import (
	"github.com/achirkof/newscatcher/app/cache"
	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/database"
)

// SchedulerInterface is what the API needs from the background scheduler:
// queueing on-demand crawls and rescoring passes.
type SchedulerInterface interface {
	EnqueueCrawl(sourceName string) error
	EnqueueRescore() error
}

type Handler struct {
	configCache   *config.SourceConfigCache
	sourceRepo    database.SourceRepository
	articleRepo   database.ArticleRepository
	criterionRepo database.CriterionRepository
	jobRepo       database.JobRepository
	appCache      *cache.Cache
	scheduler     SchedulerInterface
}
