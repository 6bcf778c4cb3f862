package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/types"
)

// ResumeStore persists resumes.
type ResumeStore interface {
	AddResume(ctx context.Context, details types.ResumeDetails) (int64, error)
}

// ResumeExtractor turns resume text into its structured form.
type ResumeExtractor interface {
	ExtractResume(ctx context.Context, text string) (*types.ResumeExtraction, error)
}

// ResumeReport describes a stored resume.
type ResumeReport struct {
	ID     int64
	Path   string
	Name   string
	Hash   string
	Skills int
}

// ResumeManager reads resume files and stores them as the active resume.
type ResumeManager struct {
	store     ResumeStore
	extractor ResumeExtractor
	logger    *zap.Logger
}

// NewResumeManager returns a ResumeManager.
func NewResumeManager(store ResumeStore, extractor ResumeExtractor, logger *zap.Logger) *ResumeManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResumeManager{store: store, extractor: extractor, logger: logger}
}

// ProcessResume extracts the text of the file at path, asks the model for its
// sections and stores it as the new active resume.
func (m *ResumeManager) ProcessResume(ctx context.Context, path string) (*ResumeReport, error) {
	log := m.logger.With(zap.String("path", path))
	log.Info("extracting resume")

	raw, err := ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	text := CleanText(raw)
	if text == "" {
		return nil, &FileError{Path: path, Message: "no text content"}
	}

	extraction, err := m.extractor.ExtractResume(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract resume %s: %w", path, err)
	}

	id, err := m.store.AddResume(ctx, types.ResumeDetails{RawText: text, ResumeExtraction: *extraction})
	if err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	report := &ResumeReport{
		ID:     id,
		Path:   path,
		Name:   extraction.Name,
		Hash:   ContentHash(text),
		Skills: len(extraction.Skills),
	}
	log.Info("resume stored",
		zap.Int64("resume_id", id),
		zap.String("sha256", report.Hash),
		zap.Int("skills", report.Skills),
	)
	return report, nil
}
