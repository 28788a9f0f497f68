package database

import (
	"fmt"
)

// JobRepositoryImpl handles database operations for crawl jobs
type JobRepositoryImpl struct {
	db *DB
}

// NewJobRepository creates a new crawl job repository
func NewJobRepository(db *DB) *JobRepositoryImpl {
	return &JobRepositoryImpl{db: db}
}

// CreateJob records a pending crawl job for a source
func (r *JobRepositoryImpl) CreateJob(sourceID string) (string, error) {
	var dbID string
	err := r.db.QueryRow(`
		INSERT INTO crawl_jobs (source_id, status)
		VALUES ($1, $2)
		RETURNING id
	`, sourceID, JobStatusPending).Scan(&dbID)

	if err != nil {
		return "", fmt.Errorf("failed to create crawl job: %w", err)
	}

	return dbID, nil
}

// StartJob marks a job as running
func (r *JobRepositoryImpl) StartJob(jobID string) error {
	_, err := r.db.Exec(`
		UPDATE crawl_jobs
		SET status = $2, started_at = NOW()
		WHERE id = $1
	`, jobID, JobStatusRunning)

	if err != nil {
		return fmt.Errorf("failed to start crawl job: %w", err)
	}

	return nil
}

// CompleteJob marks a job as completed with its traversal statistics
func (r *JobRepositoryImpl) CompleteJob(jobID string, pagesFetched, articlesFound, subdomainsFound int) error {
	_, err := r.db.Exec(`
		UPDATE crawl_jobs
		SET status = $2, pages_fetched = $3, articles_found = $4,
		    subdomains_found = $5, completed_at = NOW()
		WHERE id = $1
	`, jobID, JobStatusCompleted, pagesFetched, articlesFound, subdomainsFound)

	if err != nil {
		return fmt.Errorf("failed to complete crawl job: %w", err)
	}

	return nil
}

// FailJob marks a job as failed with the error that stopped it
func (r *JobRepositoryImpl) FailJob(jobID string, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE crawl_jobs
		SET status = $2, error_message = $3, completed_at = NOW()
		WHERE id = $1
	`, jobID, JobStatusFailed, errorMessage)

	if err != nil {
		return fmt.Errorf("failed to fail crawl job: %w", err)
	}

	return nil
}

// GetRecentJobs returns the most recently created jobs
func (r *JobRepositoryImpl) GetRecentJobs(limit int) ([]CrawlJob, error) {
	rows, err := r.db.Query(`
		SELECT id, source_id, status, pages_fetched, articles_found, subdomains_found,
		       COALESCE(error_message, ''), started_at, completed_at, created_at
		FROM crawl_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl jobs: %w", err)
	}
	defer rows.Close()

	var jobs []CrawlJob
	for rows.Next() {
		var job CrawlJob
		err := rows.Scan(
			&job.ID, &job.SourceID, &job.Status, &job.PagesFetched, &job.ArticlesFound,
			&job.SubdomainsFound, &job.ErrorMessage, &job.StartedAt, &job.CompletedAt,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crawl job rows: %w", err)
	}

	return jobs, nil
}

// GetRunningJobCount returns the number of jobs currently running
func (r *JobRepositoryImpl) GetRunningJobCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM crawl_jobs WHERE status = $1`, JobStatusRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get running job count: %w", err)
	}
	return count, nil
}
