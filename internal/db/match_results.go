package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-copilot/internal/types"
)

// DefaultMatchResultsLimit caps ListMatchResults when no limit is given.
const DefaultMatchResultsLimit = 50

// SaveMatchResult records a match and marks its job processed with the score.
func (db *DB) SaveMatchResult(ctx context.Context, resumeID int64, result types.MatchResult) error {
	matching, err := marshalList(result.MatchingSkills)
	if err != nil {
		return fmt.Errorf("failed to marshal matching skills: %w", err)
	}
	missing, err := marshalList(result.MissingSkills)
	if err != nil {
		return fmt.Errorf("failed to marshal missing skills: %w", err)
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO match_results (resume_id, job_id, total_score, recommendation,
			                            matching_skills, missing_skills)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (resume_id, job_id) DO UPDATE SET
			     total_score = EXCLUDED.total_score,
			     recommendation = EXCLUDED.recommendation,
			     matching_skills = EXCLUDED.matching_skills,
			     missing_skills = EXCLUDED.missing_skills,
			     created_at = NOW()`,
			resumeID, result.Job.ID, result.TotalScore, result.Recommendation.String(), matching, missing,
		)
		if err != nil {
			return fmt.Errorf("failed to save match result for job %s: %w", result.Job.JobID, err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE jobs SET processed = TRUE, match_score = $1 WHERE id = $2`,
			result.TotalScore, result.Job.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark job %s processed: %w", result.Job.JobID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("job not found: %d", result.Job.ID)
		}
		return nil
	})
}

// ListMatchResults returns the most recent stored matches with their jobs.
func (db *DB) ListMatchResults(ctx context.Context, limit int) ([]types.StoredMatch, error) {
	if limit <= 0 {
		limit = DefaultMatchResultsLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT m.resume_id, m.created_at, m.total_score, m.recommendation,
		        m.matching_skills, m.missing_skills,
		        j.id, j.job_id, j.title, j.company, j.location, j.description, j.requirements,
		        j.key_technologies, j.url, j.source, j.scraped_at, j.processed, j.match_score
		 FROM match_results m
		 JOIN jobs j ON j.id = m.job_id
		 ORDER BY m.created_at DESC, m.id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.StoredMatch, error) {
		var m types.StoredMatch
		var recommendation, matching, missing string
		j := &m.Job
		err := row.Scan(&m.ResumeID, &m.CreatedAt, &m.TotalScore, &recommendation, &matching, &missing,
			&j.ID, &j.JobID, &j.Title, &j.Company, &j.Location, &j.Description, &j.Requirements,
			&j.KeyTechnologies, &j.URL, &j.Source, &j.ScrapedAt, &j.Processed, &j.MatchScore)
		if err != nil {
			return m, err
		}
		m.Recommendation = types.ParseRecommendation(recommendation)
		if m.MatchingSkills, err = unmarshalList(matching); err != nil {
			return m, fmt.Errorf("matching_skills: %w", err)
		}
		if m.MissingSkills, err = unmarshalList(missing); err != nil {
			return m, fmt.Errorf("missing_skills: %w", err)
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan match result: %w", err)
	}
	return matches, nil
}

func unmarshalList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
