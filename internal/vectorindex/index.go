// Package vectorindex stores skill documents with their embeddings and answers
// nearest-neighbour queries over them.
package vectorindex

import (
	"context"
	"errors"

	"github.com/jonathan/career-copilot/internal/db"
)

// ErrCollectionNotFound is returned by Query and UpsertBatch before the first Rebuild.
var ErrCollectionNotFound = db.ErrCollectionNotFound

// DocType classifies a skill document.
type DocType string

// Document types
const (
	TypeDefinition    DocType = "definition"
	TypeTool          DocType = "tool"
	TypeManifestation DocType = "manifestation"
)

// Valid reports whether t is one of the known document types.
func (t DocType) Valid() bool {
	switch t {
	case TypeDefinition, TypeTool, TypeManifestation:
		return true
	}
	return false
}

// Metadata describes what a document is about.
type Metadata struct {
	Type     DocType `json:"type"`
	Skill    string  `json:"skill"`
	Tool     string  `json:"tool,omitempty"`
	Category string  `json:"category,omitempty"`
	Source   string  `json:"source,omitempty"`
}

// Document is one unit of embedded skill knowledge.
type Document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Result is a Document returned by Query, nearest first.
type Result struct {
	Document
	Distance float64 `json:"distance"`
}

// Filter restricts a query. The zero value matches everything.
type Filter struct {
	Type DocType
}

// Index is a named collection of embedded documents.
type Index interface {
	// Rebuild atomically replaces the collection with docs.
	Rebuild(ctx context.Context, docs []Document) error
	// UpsertBatch adds docs to the current collection, replacing documents with the same ID.
	UpsertBatch(ctx context.Context, docs []Document) error
	// Query returns up to limit documents nearest to text.
	Query(ctx context.Context, text string, limit int, filter Filter) ([]Result, error)
	// Exists reports whether the collection has been built.
	Exists(ctx context.Context) (bool, error)
}

var errEmbeddingCount = errors.New("embedder returned wrong number of vectors")

func contents(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}
