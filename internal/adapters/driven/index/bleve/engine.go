// Package bleve implements driven.SearchEngine on Bleve v2 in-memory indexes.
//
// Each document type gets its own index. Replace builds the new index off to
// the side and swaps it in under the write lock, so a search sees either the
// old or the new batch of a type, never a mix.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("bleve: engine is closed")

// bleveDocument is the indexed form of a domain.IndexableDocument.
type bleveDocument struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Location  string `json:"location"`
	Owner     string `json:"owner,omitempty"`
	Lifecycle string `json:"lifecycle,omitempty"`
	Extra     string `json:"extra,omitempty"`
}

// typeIndex is the live index of one type plus the documents it was built from.
type typeIndex struct {
	index bleve.Index
	docs  []domain.IndexableDocument
}

// Engine is a Bleve-backed search engine.
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]*typeIndex
	mapping mapping.IndexMapping
	closed  bool
}

// New creates an empty engine.
func New() (*Engine, error) {
	m, err := createIndexMapping()
	if err != nil {
		return nil, err
	}
	return &Engine{
		indexes: make(map[string]*typeIndex),
		mapping: m,
	}, nil
}

// createIndexMapping maps the base document properties as text fields.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewKeywordFieldMapping()
	keyword.IncludeInAll = false
	doc.AddFieldMappingsAt("type", keyword)

	for _, name := range []string{"title", "text", "location", "owner", "lifecycle", "extra"} {
		field := bleve.NewTextFieldMapping()
		field.Store = false
		doc.AddFieldMappingsAt(name, field)
	}

	indexMapping.DefaultMapping = doc
	if err := indexMapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return indexMapping, nil
}

// Replace builds a fresh index for docType and swaps it in.
// On error the previous index of the type stays searchable.
func (e *Engine) Replace(ctx context.Context, docType string, docs []domain.IndexableDocument) error {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	built, err := e.build(ctx, docType, docs)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = built.index.Close()
		return ErrClosed
	}
	old := e.indexes[docType]
	e.indexes[docType] = built
	e.mu.Unlock()

	// Searches hold the read lock, so nothing uses old any more.
	if old != nil {
		_ = old.index.Close()
	}
	return nil
}

// build indexes docs into a new in-memory index.
func (e *Engine) build(ctx context.Context, docType string, docs []domain.IndexableDocument) (*typeIndex, error) {
	idx, err := bleve.NewMemOnly(e.mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index for %s: %w", docType, err)
	}

	batch := idx.NewBatch()
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			_ = idx.Close()
			return nil, err
		}
		if err := batch.Index(docID(docType, i), toBleveDocument(docType, doc)); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index document %d of %s: %w", i, docType, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to execute batch for %s: %w", docType, err)
	}

	return &typeIndex{index: idx, docs: domain.CloneDocuments(docs)}, nil
}

// Search runs a match query across the indexes selected by opts.Types.
func (e *Engine) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	opts = opts.Normalised()

	var targets []bleve.Index
	for _, docType := range e.sortedTypes() {
		if opts.MatchesType(docType) {
			targets = append(targets, e.indexes[docType].index)
		}
	}
	if len(targets) == 0 {
		return []domain.SearchResult{}, nil
	}

	var searcher bleve.Index
	if len(targets) == 1 {
		searcher = targets[0]
	} else {
		searcher = bleve.NewIndexAlias(targets...)
	}

	matchQuery := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(matchQuery, opts.Limit, opts.Offset, false)
	req.SortBy([]string{"-_score", "_id"})

	res, err := searcher.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		docType, pos, ok := parseDocID(hit.ID)
		if !ok {
			continue
		}
		ti := e.indexes[docType]
		if ti == nil || pos >= len(ti.docs) {
			continue
		}
		results = append(results, domain.SearchResult{
			Type:     docType,
			Document: ti.docs[pos].Clone(),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// Count returns the number of documents indexed for docType.
func (e *Engine) Count(docType string) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, ErrClosed
	}
	ti, ok := e.indexes[docType]
	if !ok {
		return 0, nil
	}
	return ti.index.DocCount()
}

// Close closes every index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	for docType, ti := range e.indexes {
		if err := ti.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", docType, err))
		}
	}
	e.indexes = nil
	return errors.Join(errs...)
}

// sortedTypes lists the indexed types (caller must hold lock).
func (e *Engine) sortedTypes() []string {
	types := make([]string, 0, len(e.indexes))
	for t := range e.indexes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func toBleveDocument(docType string, doc domain.IndexableDocument) bleveDocument {
	var extra []string
	for _, key := range slices.Sorted(maps.Keys(doc.Fields)) {
		if s, ok := doc.Fields[key].(string); ok && s != "" {
			extra = append(extra, s)
		}
	}
	return bleveDocument{
		Type:      docType,
		Title:     doc.Title,
		Text:      doc.Text,
		Location:  doc.Location,
		Owner:     doc.Owner,
		Lifecycle: doc.Lifecycle,
		Extra:     strings.Join(extra, " "),
	}
}

// docID encodes the type and batch position. Types may contain "/", so the
// position always follows the last one.
func docID(docType string, pos int) string {
	return docType + "/" + strconv.Itoa(pos)
}

func parseDocID(id string) (string, int, bool) {
	i := strings.LastIndexByte(id, '/')
	if i < 0 {
		return "", 0, false
	}
	pos, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, false
	}
	return id[:i], pos, true
}
