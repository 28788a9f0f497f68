package database

import (
	"database/sql"
	"fmt"
	"time"
)

const sourceColumns = `id, source_name, seed_url, host, is_subdomain, parent_source_id, enabled,
	       COALESCE(last_etag, ''), COALESCE(last_modified, ''),
	       last_crawled_at, next_crawl_at, created_at, updated_at`

// SourceRepositoryImpl handles database operations for crawl sources
type SourceRepositoryImpl struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

// UpsertSource inserts or updates a source from its configuration
func (r *SourceRepositoryImpl) UpsertSource(sourceName, seedURL, host string, enabled bool) (string, error) {
	var dbID string
	err := r.db.QueryRow(`
		INSERT INTO sources (source_name, seed_url, host, enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_name) DO UPDATE
		SET seed_url = EXCLUDED.seed_url, host = EXCLUDED.host,
		    enabled = EXCLUDED.enabled, updated_at = NOW()
		RETURNING id
	`, sourceName, seedURL, host, enabled).Scan(&dbID)

	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	return dbID, nil
}

// RegisterSubdomain records a subdomain discovered during a crawl as its
// own source. Re-registering an already known subdomain is a no-op apart
// from the updated_at bump.
func (r *SourceRepositoryImpl) RegisterSubdomain(parentSourceID, sourceName, seedURL, host string) (string, error) {
	var dbID string
	err := r.db.QueryRow(`
		INSERT INTO sources (source_name, seed_url, host, is_subdomain, parent_source_id, enabled)
		VALUES ($1, $2, $3, TRUE, $4, TRUE)
		ON CONFLICT (source_name) DO UPDATE
		SET updated_at = NOW()
		RETURNING id
	`, sourceName, seedURL, host, parentSourceID).Scan(&dbID)

	if err != nil {
		return "", fmt.Errorf("failed to register subdomain: %w", err)
	}

	return dbID, nil
}

// GetSource retrieves a source by its configuration name
func (r *SourceRepositoryImpl) GetSource(sourceName string) (*Source, error) {
	return r.getOne(`WHERE source_name = $1`, sourceName)
}

// GetSourceByID retrieves a source by its database UUID
func (r *SourceRepositoryImpl) GetSourceByID(sourceID string) (*Source, error) {
	return r.getOne(`WHERE id = $1`, sourceID)
}

func (r *SourceRepositoryImpl) getOne(where string, arg interface{}) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT `+sourceColumns+`
		FROM sources
		`+where, arg).Scan(
		&source.ID, &source.Name, &source.URL, &source.Host, &source.IsSubdomain,
		&source.ParentSourceID, &source.Enabled, &source.LastETag, &source.LastModified,
		&source.LastCrawledAt, &source.NextCrawlAt, &source.CreatedAt, &source.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &source, nil
}

// GetAllSources returns every registered source
func (r *SourceRepositoryImpl) GetAllSources() ([]Source, error) {
	return r.getMany(`
		SELECT ` + sourceColumns + `
		FROM sources
		ORDER BY source_name
	`)
}

// GetSourcesDueForCrawl returns enabled sources whose next crawl time has
// passed, never-crawled sources first
func (r *SourceRepositoryImpl) GetSourcesDueForCrawl() ([]Source, error) {
	return r.getMany(`
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE enabled = true
		  AND (next_crawl_at IS NULL OR next_crawl_at <= NOW())
		ORDER BY COALESCE(next_crawl_at, '1970-01-01'::timestamptz)
		LIMIT 50
	`)
}

func (r *SourceRepositoryImpl) getMany(query string) ([]Source, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var source Source
		err := rows.Scan(
			&source.ID, &source.Name, &source.URL, &source.Host, &source.IsSubdomain,
			&source.ParentSourceID, &source.Enabled, &source.LastETag, &source.LastModified,
			&source.LastCrawledAt, &source.NextCrawlAt, &source.CreatedAt, &source.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// UpdateRevalidation stores the validators returned by the last seed fetch
func (r *SourceRepositoryImpl) UpdateRevalidation(sourceID, etag, lastModified string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_etag = $2, last_modified = $3, updated_at = NOW()
		WHERE id = $1
	`, sourceID, etag, lastModified)

	if err != nil {
		return fmt.Errorf("failed to update revalidation data: %w", err)
	}

	return nil
}

// UpdateNextCrawl records a finished crawl and schedules the next one
func (r *SourceRepositoryImpl) UpdateNextCrawl(sourceID string, nextCrawl time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET next_crawl_at = $2, last_crawled_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, sourceID, nextCrawl)

	if err != nil {
		return fmt.Errorf("failed to update next crawl time: %w", err)
	}

	return nil
}

// SetSourceEnabled sets the enabled status of a source
func (r *SourceRepositoryImpl) SetSourceEnabled(sourceID string, enabled bool) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET enabled = $2, updated_at = NOW()
		WHERE id = $1
	`, sourceID, enabled)

	if err != nil {
		return fmt.Errorf("failed to set source enabled status: %w", err)
	}

	return nil
}

// GetSourceCount returns the total number of sources
func (r *SourceRepositoryImpl) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// GetEnabledSourceCount returns the count of enabled sources
func (r *SourceRepositoryImpl) GetEnabledSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources WHERE enabled = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get enabled source count: %w", err)
	}
	return count, nil
}
