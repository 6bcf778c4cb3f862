package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-copilot/internal/types"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// JobExists reports whether a job with the given source job ID is stored.
func (db *DB) JobExists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1)`, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check job %s: %w", jobID, err)
	}
	return exists, nil
}

// AddJobPosting stores a scraped job with its extraction. It returns false when
// the job ID or URL was already present and nothing was written.
func (db *DB) AddJobPosting(ctx context.Context, posting types.JobPosting) (bool, error) {
	requirements, err := marshalList(posting.Extraction.Requirements)
	if err != nil {
		return false, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	technologies, err := marshalList(posting.Extraction.KeyTechnologies)
	if err != nil {
		return false, fmt.Errorf("failed to marshal key technologies: %w", err)
	}

	raw := posting.Raw
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (job_id, title, company, location, description, requirements,
		                   key_technologies, url, source, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT DO NOTHING`,
		raw.JobID, raw.Title, raw.Company, raw.Location, posting.Extraction.Description,
		requirements, technologies, raw.URL, raw.Source, raw.ScrapedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert job %s: %w", raw.JobID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetAllUnprocessedJobs returns jobs not yet matched, oldest first.
func (db *DB) GetAllUnprocessedJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, title, company, location, description, requirements,
		        key_technologies, url, source, scraped_at, processed, match_score
		 FROM jobs WHERE NOT processed
		 ORDER BY scraped_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed jobs: %w", err)
	}
	jobs, err := pgx.CollectRows(rows, scanJob)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.CollectableRow) (types.Job, error) {
	var j types.Job
	err := row.Scan(&j.ID, &j.JobID, &j.Title, &j.Company, &j.Location, &j.Description,
		&j.Requirements, &j.KeyTechnologies, &j.URL, &j.Source, &j.ScrapedAt, &j.Processed, &j.MatchScore)
	return j, err
}
