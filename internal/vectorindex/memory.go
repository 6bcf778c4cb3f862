package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jonathan/career-copilot/internal/llm"
)

type entry struct {
	doc    Document
	vector []float32
}

// Memory is an in-process Index. Each Rebuild installs a fresh generation
// under the lock, so concurrent queries see either the old or the new one.
type Memory struct {
	embedder llm.Embedder

	mu      sync.RWMutex
	entries []entry
	built   bool
}

var _ Index = (*Memory)(nil)

// NewMemory returns an empty in-memory Index.
func NewMemory(embedder llm.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

// Rebuild implements Index.
func (m *Memory) Rebuild(ctx context.Context, docs []Document) error {
	entries, err := m.embed(ctx, docs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries = entries
	m.built = true
	m.mu.Unlock()
	return nil
}

// UpsertBatch implements Index.
func (m *Memory) UpsertBatch(ctx context.Context, docs []Document) error {
	if ok, _ := m.Exists(ctx); !ok {
		return ErrCollectionNotFound
	}
	added, err := m.embed(ctx, docs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// copy so readers holding the old slice are unaffected
	next := make([]entry, len(m.entries), len(m.entries)+len(added))
	copy(next, m.entries)
	positions := make(map[string]int, len(next))
	for i, e := range next {
		positions[e.doc.ID] = i
	}
	for _, e := range added {
		if i, ok := positions[e.doc.ID]; ok {
			next[i] = e
			continue
		}
		positions[e.doc.ID] = len(next)
		next = append(next, e)
	}
	m.entries = next
	return nil
}

// Query implements Index.
func (m *Memory) Query(ctx context.Context, text string, limit int, filter Filter) ([]Result, error) {
	m.mu.RLock()
	entries, built := m.entries, m.built
	m.mu.RUnlock()

	if !built {
		return nil, ErrCollectionNotFound
	}
	if limit <= 0 {
		return nil, nil
	}

	vectors, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errEmbeddingCount
	}
	query := vectors[0]

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if filter.Type != "" && e.doc.Metadata.Type != filter.Type {
			continue
		}
		results = append(results, Result{Document: e.doc, Distance: CosineDistance(query, e.vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Exists implements Index.
func (m *Memory) Exists(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.built, nil
}

func (m *Memory) embed(ctx context.Context, docs []Document) ([]entry, error) {
	if len(docs) == 0 {
		return []entry{}, nil
	}
	vectors, err := m.embedder.Embed(ctx, contents(docs))
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d documents: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: got %d for %d documents", errEmbeddingCount, len(vectors), len(docs))
	}

	entries := make([]entry, len(docs))
	for i, d := range docs {
		entries[i] = entry{doc: d, vector: vectors[i]}
	}
	return entries, nil
}

// CosineDistance returns 1 - cosine similarity, matching pgvector's <=> operator.
// A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
