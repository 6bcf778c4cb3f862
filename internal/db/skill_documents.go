package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// SkillDocument is one embedded row of a skill collection.
type SkillDocument struct {
	ID        string
	Content   string
	DocType   string
	Skill     string
	Tool      string
	Category  string
	Source    string
	Embedding []float32
}

// SkillDocumentMatch is a SkillDocument returned by a similarity query.
type SkillDocumentMatch struct {
	SkillDocument
	Distance float64
}

const insertSkillDocumentSQL = `INSERT INTO skill_documents
	    (collection, generation, id, content, doc_type, skill, tool, category, source, embedding)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// -----------------------------------------------------------------------------
// Skill Document Methods
// -----------------------------------------------------------------------------

// SkillCollectionExists reports whether the collection has an active generation.
func (db *DB) SkillCollectionExists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM skill_collections WHERE name = $1)`, collection,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	return exists, nil
}

// ReplaceSkillDocuments writes docs as a new generation of the collection and
// makes it the active one. Readers see either the old or the new generation.
func (db *DB) ReplaceSkillDocuments(ctx context.Context, collection string, docs []SkillDocument) (int64, error) {
	var generation int64
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx,
			`SELECT active_generation FROM skill_collections WHERE name = $1 FOR UPDATE`, collection,
		).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to lock collection %s: %w", collection, err)
		}
		generation = current + 1

		if err := insertSkillDocuments(ctx, tx, collection, generation, docs, ""); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO skill_collections (name, active_generation) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET active_generation = EXCLUDED.active_generation, updated_at = NOW()`,
			collection, generation,
		)
		if err != nil {
			return fmt.Errorf("failed to activate generation %d of %s: %w", generation, collection, err)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM skill_documents WHERE collection = $1 AND generation < $2`,
			collection, generation,
		)
		if err != nil {
			return fmt.Errorf("failed to prune collection %s: %w", collection, err)
		}
		db.logger.Debug("pruned skill documents",
			zap.String("collection", collection),
			zap.Int64("rows", tag.RowsAffected()),
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return generation, nil
}

// UpsertSkillDocuments adds docs to the active generation, replacing rows with the same ID.
func (db *DB) UpsertSkillDocuments(ctx context.Context, collection string, docs []SkillDocument) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		var generation int64
		err := tx.QueryRow(ctx,
			`SELECT active_generation FROM skill_collections WHERE name = $1 FOR SHARE`, collection,
		).Scan(&generation)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
			}
			return fmt.Errorf("failed to read collection %s: %w", collection, err)
		}

		return insertSkillDocuments(ctx, tx, collection, generation, docs,
			` ON CONFLICT (collection, generation, id) DO UPDATE SET
			     content = EXCLUDED.content, doc_type = EXCLUDED.doc_type, skill = EXCLUDED.skill,
			     tool = EXCLUDED.tool, category = EXCLUDED.category, source = EXCLUDED.source,
			     embedding = EXCLUDED.embedding`)
	})
}

// QuerySkillDocuments returns the limit documents nearest to embedding by cosine
// distance within the active generation. An empty docType matches every type.
func (db *DB) QuerySkillDocuments(ctx context.Context, collection string, embedding []float32, limit int, docType string) ([]SkillDocumentMatch, error) {
	exists, err := db.SkillCollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT d.id, d.content, d.doc_type, d.skill, d.tool, d.category, d.source,
		        d.embedding <=> $2 AS distance
		 FROM skill_documents d
		 JOIN skill_collections c ON c.name = d.collection AND c.active_generation = d.generation
		 WHERE d.collection = $1 AND ($3::text = '' OR d.doc_type = $3::text)
		 ORDER BY distance, d.id
		 LIMIT $4`,
		collection, pgvector.NewVector(embedding), docType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SkillDocumentMatch, error) {
		var m SkillDocumentMatch
		err := row.Scan(&m.ID, &m.Content, &m.DocType, &m.Skill, &m.Tool, &m.Category, &m.Source, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan skill document: %w", err)
	}
	return matches, nil
}

func insertSkillDocuments(ctx context.Context, tx pgx.Tx, collection string, generation int64, docs []SkillDocument, suffix string) error {
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(insertSkillDocumentSQL+suffix,
			collection, generation, d.ID, d.Content, d.DocType, d.Skill, d.Tool, d.Category, d.Source,
			pgvector.NewVector(d.Embedding),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, d := range docs {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert skill document %s: %w", d.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert skill documents: %w", err)
	}
	return nil
}
