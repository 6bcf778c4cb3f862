package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-copilot/internal/types"
)

type mockResumeStore struct {
	details []types.ResumeDetails
	err     error
}

func (m *mockResumeStore) AddResume(_ context.Context, details types.ResumeDetails) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.details = append(m.details, details)
	return int64(len(m.details)), nil
}

type mockResumeExtractor struct {
	ExtractResumeFunc func(ctx context.Context, text string) (*types.ResumeExtraction, error)
}

func (m *mockResumeExtractor) ExtractResume(ctx context.Context, text string) (*types.ResumeExtraction, error) {
	return m.ExtractResumeFunc(ctx, text)
}

func TestResumeManager_ProcessResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane   Doe\r\n\r\n\r\n\r\nSkills: Go, SQL\n"), 0o644))

	var seen string
	extractor := &mockResumeExtractor{ExtractResumeFunc: func(_ context.Context, text string) (*types.ResumeExtraction, error) {
		seen = text
		return &types.ResumeExtraction{Name: "Jane Doe", Skills: []string{"go", "sql"}}, nil
	}}
	store := &mockResumeStore{}

	report, err := NewResumeManager(store, extractor, nil).ProcessResume(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\n\nSkills: Go, SQL", seen)
	assert.Equal(t, int64(1), report.ID)
	assert.Equal(t, "Jane Doe", report.Name)
	assert.Equal(t, 2, report.Skills)
	assert.Equal(t, ContentHash(seen), report.Hash)

	require.Len(t, store.details, 1)
	assert.Equal(t, seen, store.details[0].RawText)
	assert.Equal(t, []string{"go", "sql"}, store.details[0].Skills)
}

func TestResumeManager_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte(" \n\n "), 0o644))
	valid := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(valid, []byte("Jane"), 0o644))

	okExtractor := &mockResumeExtractor{ExtractResumeFunc: func(context.Context, string) (*types.ResumeExtraction, error) {
		return &types.ResumeExtraction{Name: "Jane"}, nil
	}}
	failingExtractor := &mockResumeExtractor{ExtractResumeFunc: func(context.Context, string) (*types.ResumeExtraction, error) {
		return nil, errors.New("model down")
	}}

	tests := []struct {
		name      string
		path      string
		extractor *mockResumeExtractor
		store     *mockResumeStore
		wantErr   string
	}{
		{name: "empty file", path: empty, extractor: okExtractor, store: &mockResumeStore{}, wantErr: "no text content"},
		{name: "extraction fails", path: valid, extractor: failingExtractor, store: &mockResumeStore{}, wantErr: "model down"},
		{name: "store fails", path: valid, extractor: okExtractor, store: &mockResumeStore{err: errors.New("db gone")}, wantErr: "failed to store resume"},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), extractor: okExtractor, store: &mockResumeStore{}, wantErr: "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResumeManager(tt.store, tt.extractor, nil).ProcessResume(context.Background(), tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, tt.store.details)
		})
	}
}
