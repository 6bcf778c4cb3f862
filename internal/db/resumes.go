package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/types"
)

// -----------------------------------------------------------------------------
// Resume Methods
// -----------------------------------------------------------------------------

// AddResume stores a new resume as the only active one and returns its ID.
func (db *DB) AddResume(ctx context.Context, details types.ResumeDetails) (int64, error) {
	skills, err := marshalList(details.Skills)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal skills: %w", err)
	}
	education, err := marshalList(details.Education)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal education: %w", err)
	}
	experience, err := marshalList(details.Experience)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal experience: %w", err)
	}
	projects, err := marshalList(details.Projects)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal projects: %w", err)
	}

	var id int64
	err = db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE resumes SET is_active = FALSE WHERE is_active`); err != nil {
			return fmt.Errorf("failed to deactivate resumes: %w", err)
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO resumes (raw_text, name, email, phone_number, skills, education,
			                      experience, summary, projects, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
			 RETURNING id`,
			details.RawText, details.Name, details.Email, details.PhoneNumber,
			skills, education, experience, details.Summary, projects,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert resume: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetActiveResume returns the active resume, or nil when none has been added.
func (db *DB) GetActiveResume(ctx context.Context) (*types.Resume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, raw_text, name, email, phone_number, skills, education, experience,
		        summary, projects, uploaded_at, is_active
		 FROM resumes WHERE is_active
		 ORDER BY uploaded_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active resume: %w", err)
	}
	resumes, err := pgx.CollectRows(rows, scanResume)
	if err != nil {
		return nil, fmt.Errorf("failed to scan resume: %w", err)
	}

	switch len(resumes) {
	case 0:
		return nil, nil
	case 1:
	default:
		db.logger.Warn("multiple active resumes found, using the most recent",
			zap.Int("active", len(resumes)),
			zap.Int64("resume_id", resumes[0].ID),
		)
	}
	return &resumes[0], nil
}

func scanResume(row pgx.CollectableRow) (types.Resume, error) {
	var r types.Resume
	err := row.Scan(&r.ID, &r.RawText, &r.Name, &r.Email, &r.PhoneNumber, &r.Skills,
		&r.Education, &r.Experience, &r.Summary, &r.Projects, &r.UploadedAt, &r.IsActive)
	return r, err
}
