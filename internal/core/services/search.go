package services

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultCacheSize is the number of cached query results.
const DefaultCacheSize = 256

// SearchService answers queries against the published index state.
type SearchService struct {
	committer driving.IndexCommitter
	engine    driven.SearchEngine
	cache     *lru.Cache[string, []domain.SearchResult]
}

// NewSearchService creates a new search service. engine may be nil, in
// which case only empty (listing) queries are served. A cacheSize of zero
// disables result caching.
func NewSearchService(
	committer driving.IndexCommitter,
	engine driven.SearchEngine,
	cacheSize int,
) *SearchService {
	s := &SearchService{
		committer: committer,
		engine:    engine,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []domain.SearchResult](cacheSize)
		if err == nil {
			s.cache = cache
		}
	}
	return s
}

// Search performs a keyword search over the published documents.
// An empty query lists the published documents of the requested types.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	opts = opts.Normalised()

	// Results only change when a batch is committed.
	key := cacheKey(s.committer.Generation(), query, opts)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			logger.Debug("Cache hit: %d results", len(hit))
			return hit, nil
		}
	}

	var (
		results []domain.SearchResult
		err     error
	)
	if query == "" {
		results = s.list(opts)
	} else {
		if s.engine == nil {
			return nil, domain.ErrSearchUnavailable
		}
		results, err = s.engine.Search(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	logger.Debug("Search returned %d results", len(results))
	if s.cache != nil {
		s.cache.Add(key, results)
	}
	return results, nil
}

// list pages through the published batches in type order.
func (s *SearchService) list(opts domain.SearchOptions) []domain.SearchResult {
	var all []domain.SearchResult
	for _, docType := range s.committer.Types() {
		if !opts.MatchesType(docType) {
			continue
		}
		batch := s.committer.Snapshot(docType)
		if batch == nil {
			continue
		}
		for _, doc := range batch.Documents {
			all = append(all, domain.SearchResult{Type: docType, Document: doc.Clone()})
		}
	}

	if opts.Offset >= len(all) {
		return nil
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end]
}

// Documents returns a copy of the published batch of docType.
func (s *SearchService) Documents(_ context.Context, docType string) ([]domain.IndexableDocument, error) {
	batch := s.committer.Snapshot(docType)
	if batch == nil {
		return nil, fmt.Errorf("type %q: %w", docType, domain.ErrNotFound)
	}
	return domain.CloneDocuments(batch.Documents), nil
}

// Stats summarises every published type.
func (s *SearchService) Stats(_ context.Context) ([]domain.TypeStats, error) {
	types := s.committer.Types()
	stats := make([]domain.TypeStats, 0, len(types))
	for _, docType := range types {
		batch := s.committer.Snapshot(docType)
		if batch == nil {
			continue
		}
		stats = append(stats, domain.TypeStats{
			Type:        docType,
			Documents:   batch.Len(),
			RunID:       batch.RunID,
			CommittedAt: batch.CommittedAt,
		})
	}
	return stats, nil
}

func cacheKey(generation uint64, query string, opts domain.SearchOptions) string {
	return fmt.Sprintf("%d|%s|%s|%d|%d",
		generation, query, strings.Join(opts.Types, ","), opts.Limit, opts.Offset)
}
