package vectorindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/career-copilot/internal/db"
	"github.com/jonathan/career-copilot/internal/llm"
)

// Store is the subset of *db.DB the Postgres index needs.
type Store interface {
	ReplaceSkillDocuments(ctx context.Context, collection string, docs []db.SkillDocument) (int64, error)
	UpsertSkillDocuments(ctx context.Context, collection string, docs []db.SkillDocument) error
	QuerySkillDocuments(ctx context.Context, collection string, embedding []float32, limit int, docType string) ([]db.SkillDocumentMatch, error)
	SkillCollectionExists(ctx context.Context, collection string) (bool, error)
}

// Postgres is an Index backed by pgvector tables.
type Postgres struct {
	store      Store
	embedder   llm.Embedder
	collection string
	logger     *zap.Logger
}

var _ Index = (*Postgres)(nil)

// NewPostgres returns an Index over collection in store.
func NewPostgres(store Store, embedder llm.Embedder, collection string, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		store:      store,
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}
}

// Rebuild implements Index.
func (p *Postgres) Rebuild(ctx context.Context, docs []Document) error {
	rows, err := p.embedDocuments(ctx, docs)
	if err != nil {
		return err
	}

	generation, err := p.store.ReplaceSkillDocuments(ctx, p.collection, rows)
	if err != nil {
		return fmt.Errorf("failed to rebuild collection %s: %w", p.collection, err)
	}

	p.logger.Info("skill collection rebuilt",
		zap.String("collection", p.collection),
		zap.Int64("generation", generation),
		zap.Int("documents", len(rows)),
	)
	return nil
}

// UpsertBatch implements Index.
func (p *Postgres) UpsertBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows, err := p.embedDocuments(ctx, docs)
	if err != nil {
		return err
	}
	if err := p.store.UpsertSkillDocuments(ctx, p.collection, rows); err != nil {
		return fmt.Errorf("failed to upsert into collection %s: %w", p.collection, err)
	}
	return nil
}

// Query implements Index.
func (p *Postgres) Query(ctx context.Context, text string, limit int, filter Filter) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}

	vectors, err := p.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errEmbeddingCount
	}

	matches, err := p.store.QuerySkillDocuments(ctx, p.collection, vectors[0], limit, string(filter.Type))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Document: Document{
				ID:      m.ID,
				Content: m.Content,
				Metadata: Metadata{
					Type:     DocType(m.DocType),
					Skill:    m.Skill,
					Tool:     m.Tool,
					Category: m.Category,
					Source:   m.Source,
				},
			},
			Distance: m.Distance,
		})
	}
	return results, nil
}

// Exists implements Index.
func (p *Postgres) Exists(ctx context.Context) (bool, error) {
	return p.store.SkillCollectionExists(ctx, p.collection)
}

func (p *Postgres) embedDocuments(ctx context.Context, docs []Document) ([]db.SkillDocument, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	vectors, err := p.embedder.Embed(ctx, contents(docs))
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d documents: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: got %d for %d documents", errEmbeddingCount, len(vectors), len(docs))
	}

	rows := make([]db.SkillDocument, len(docs))
	for i, d := range docs {
		rows[i] = db.SkillDocument{
			ID:        d.ID,
			Content:   d.Content,
			DocType:   string(d.Metadata.Type),
			Skill:     d.Metadata.Skill,
			Tool:      d.Metadata.Tool,
			Category:  d.Metadata.Category,
			Source:    d.Metadata.Source,
			Embedding: vectors[i],
		}
	}
	return rows, nil
}
