package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-copilot/internal/vectorindex"
)

// DefaultSkillsSubdir is the directory under the knowledge root holding skill files.
const DefaultSkillsSubdir = "skills"

// ErrCollectionNotFound is returned by Query before anything has been ingested.
var ErrCollectionNotFound = vectorindex.ErrCollectionNotFound

// Options configures a Store.
type Options struct {
	SkillsSubdir string
	// Workers bounds concurrent file parsing. Zero means 4.
	Workers int
}

// IngestReport summarizes an ingestion pass.
type IngestReport struct {
	Files     int
	Skills    int
	Documents int
}

// Store is the skill knowledge base. It is safe for concurrent use.
type Store struct {
	index  vectorindex.Index
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	opened bool
}

// NewStore returns a Store over index.
func NewStore(index vectorindex.Index, opts Options, logger *zap.Logger) *Store {
	if opts.SkillsSubdir == "" {
		opts.SkillsSubdir = DefaultSkillsSubdir
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{index: index, opts: opts, logger: logger}
}

// Ingest reads every skill file under knowledgeDir and replaces the collection
// with the documents built from them. On any error the previous collection is kept.
func (s *Store) Ingest(ctx context.Context, knowledgeDir string) (*IngestReport, error) {
	if err := requireDir(knowledgeDir, "knowledge directory does not exist"); err != nil {
		return nil, err
	}
	skillsDir := filepath.Join(knowledgeDir, s.opts.SkillsSubdir)
	if err := requireDir(skillsDir, "skills directory does not exist"); err != nil {
		return nil, err
	}

	paths, err := findSkillFiles(skillsDir)
	if err != nil {
		return nil, &ConfigError{Path: skillsDir, Message: "failed to list skill files", Cause: err}
	}
	if len(paths) == 0 {
		s.logger.Warn("no skill files found", zap.String("dir", skillsDir))
	}

	parsed := make([]*SkillFile, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			sf, err := readSkillFile(path)
			if err != nil {
				return err
			}
			parsed[i] = sf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := newDocumentBuilder()
	for _, sf := range parsed {
		builder.add(sf)
	}
	docs := builder.documents()

	if err := s.index.Rebuild(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to store skill documents: %w", err)
	}

	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()

	report := &IngestReport{
		Files:     len(paths),
		Skills:    builder.skillCount(),
		Documents: len(docs),
	}
	s.logger.Info("knowledge ingested",
		zap.Int("files", report.Files),
		zap.Int("skills", report.Skills),
		zap.Int("documents", report.Documents),
	)
	return report, nil
}

// Query returns up to limit documents nearest to text. An empty docType matches every type.
func (s *Store) Query(ctx context.Context, text string, limit int, docType vectorindex.DocType) ([]vectorindex.Result, error) {
	if err := s.open(ctx); err != nil {
		return nil, err
	}

	results, err := s.index.Query(ctx, text, limit, vectorindex.Filter{Type: docType})
	if err != nil {
		return nil, fmt.Errorf("knowledge query failed: %w", err)
	}
	s.logger.Debug("knowledge query",
		zap.String("type", string(docType)),
		zap.Int("limit", limit),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// open checks once that the collection exists.
func (s *Store) open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}
	exists, err := s.index.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to open skill collection: %w", err)
	}
	if !exists {
		return ErrCollectionNotFound
	}
	s.opened = true
	return nil
}

func requireDir(path, message string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigError{Path: path, Message: message, Cause: err}
	}
	if !info.IsDir() {
		return &ConfigError{Path: path, Message: "not a directory"}
	}
	return nil
}

// findSkillFiles returns every .yaml or .yml file under dir in lexical order.
func findSkillFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
