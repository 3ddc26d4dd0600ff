// Package memory implements driven.SearchEngine with case-insensitive term
// matching over plain slices. It is used in tests and with engine.kind=memory.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// Engine is an in-memory search engine.
type Engine struct {
	mu   sync.RWMutex
	docs map[string][]domain.IndexableDocument
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{docs: make(map[string][]domain.IndexableDocument)}
}

// Replace swaps the documents of docType.
func (e *Engine) Replace(ctx context.Context, docType string, docs []domain.IndexableDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := domain.CloneDocuments(docs)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs[docType] = batch
	return nil
}

// Search returns documents containing every query term, scored by the
// number of term occurrences.
func (e *Engine) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []domain.SearchResult{}, nil
	}
	opts = opts.Normalised()

	e.mu.RLock()
	defer e.mu.RUnlock()

	types := make([]string, 0, len(e.docs))
	for t := range e.docs {
		if opts.MatchesType(t) {
			types = append(types, t)
		}
	}
	slices.Sort(types)

	var hits []domain.SearchResult
	for _, docType := range types {
		for _, doc := range e.docs[docType] {
			if score := match(doc, terms); score > 0 {
				hits = append(hits, domain.SearchResult{Type: docType, Document: doc.Clone(), Score: score})
			}
		}
	}

	// Stable keeps type and batch order among equal scores.
	slices.SortStableFunc(hits, func(a, b domain.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if opts.Offset >= len(hits) {
		return []domain.SearchResult{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(hits))
	return hits[opts.Offset:end], nil
}

// Close is a no-op.
func (e *Engine) Close() error {
	return nil
}

// match returns the total occurrences of terms in doc, or zero unless every
// term occurs at least once.
func match(doc domain.IndexableDocument, terms []string) float64 {
	haystack := strings.ToLower(strings.Join([]string{
		doc.Title, doc.Text, doc.Location, doc.Owner, doc.Lifecycle,
	}, " "))

	total := 0
	for _, term := range terms {
		n := strings.Count(haystack, term)
		if n == 0 {
			return 0
		}
		total += n
	}
	return float64(total)
}
