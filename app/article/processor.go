package article

import (
	"context"
	"log/slog"

	"github.com/achirkof/newscatcher/app/crawler"
)

// Processed is an extracted article after deduplication, enrichment, and
// relevance scoring. Each article is transformed independently; nothing
// here mutates shared state.
type Processed struct {
	Article        *crawler.Article
	Fingerprint    string
	Classification Classification
	Summary        string
	Categories     []string
	Tags           []string
	// Scores maps criterion ID to relevance.
	Scores map[string]float64
}

// Processor runs crawled articles through the dedupe -> enrich -> score
// pipeline.
type Processor struct {
	enricher Enricher
	matcher  *Matcher
}

// NewProcessor creates a processor. A nil enricher is allowed and means
// every article gets the truncated-body fallback summary.
func NewProcessor(enricher Enricher, matcher *Matcher) *Processor {
	return &Processor{enricher: enricher, matcher: matcher}
}

// Run classifies every article against the known records and, for new and
// updated content, enriches it and scores it against each active
// criterion. Duplicates pass through with their classification only.
func (p *Processor) Run(ctx context.Context, articles []*crawler.Article, known KnownRecords, criteria []Criterion) []Processed {
	processed := make([]Processed, 0, len(articles))

	for _, a := range articles {
		result := Processed{
			Article:     a,
			Fingerprint: Fingerprint(a.Title, a.Content),
			Scores:      make(map[string]float64),
		}
		result.Classification = Classify(known, a.URL, result.Fingerprint)

		if result.Classification == ClassificationDuplicate {
			slog.Debug("Skipping duplicate content", "url", a.URL, "fingerprint", result.Fingerprint)
			processed = append(processed, result)
			continue
		}

		enrichment := p.enrich(ctx, a)
		result.Summary = enrichment.Summary
		result.Categories = enrichment.Categories
		result.Tags = enrichment.Tags

		for _, criterion := range criteria {
			if !criterion.Active {
				continue
			}
			result.Scores[criterion.ID] = p.matcher.Score(a.Title, result.Summary, criterion.Keywords, criterion.Prompt)
		}

		processed = append(processed, result)
	}

	return processed
}

// Rescore recomputes the relevance scores of stored article content
// against the given criteria. Used when criteria change after crawling.
func (p *Processor) Rescore(title, summary string, criteria []Criterion) map[string]float64 {
	scores := make(map[string]float64)
	for _, criterion := range criteria {
		if !criterion.Active {
			continue
		}
		scores[criterion.ID] = p.matcher.Score(title, summary, criterion.Keywords, criterion.Prompt)
	}
	return scores
}

func (p *Processor) enrich(ctx context.Context, a *crawler.Article) *Enrichment {
	if p.enricher == nil {
		return FallbackEnrichment(a.Content)
	}

	enrichment, err := p.enricher.Enrich(ctx, a.Title, a.Content)
	if err != nil {
		slog.Warn("Enrichment failed, using fallback summary", "url", a.URL, "error", err)
		return FallbackEnrichment(a.Content)
	}

	return enrichment
}
