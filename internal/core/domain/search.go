package domain

import "time"

// DefaultSearchLimit is used when SearchOptions.Limit is not positive.
const DefaultSearchLimit = 10

// SearchOptions configures a search query.
type SearchOptions struct {
	// Types filters to specific document types. Empty means all types.
	Types []string

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// Normalised returns opts with defaults applied.
func (o SearchOptions) Normalised() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// MatchesType reports whether docType passes the type filter.
func (o SearchOptions) MatchesType(docType string) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, t := range o.Types {
		if t == docType {
			return true
		}
	}
	return false
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Type is the document type the hit belongs to.
	Type string `json:"type"`

	// Document is the matched document.
	Document IndexableDocument `json:"document"`

	// Score is the relevance score reported by the engine.
	Score float64 `json:"score"`
}

// TypeStats summarises the published batch of one type.
type TypeStats struct {
	// Type is the document type.
	Type string `json:"type"`

	// Documents is the number of published documents.
	Documents int `json:"documents"`

	// RunID identifies the cycle that produced the batch.
	RunID string `json:"run_id"`

	// CommittedAt is when the batch became visible.
	CommittedAt time.Time `json:"committed_at"`
}
