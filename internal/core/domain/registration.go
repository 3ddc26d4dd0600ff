package domain

import (
	"slices"
	"strings"
	"time"
)

// Scope selects which document types a decorator applies to.
// The zero value applies to all types.
type Scope struct {
	types map[string]struct{}
}

// AllTypes returns a scope matching every document type.
func AllTypes() Scope {
	return Scope{}
}

// TypesScope returns a scope limited to the given types.
// Blank entries are ignored; an empty list yields AllTypes.
func TypesScope(types ...string) Scope {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t != "" {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return AllTypes()
	}
	return Scope{types: set}
}

// All reports whether the scope matches every type.
func (s Scope) All() bool {
	return len(s.types) == 0
}

// Contains reports whether docType is in scope.
func (s Scope) Contains(docType string) bool {
	if s.All() {
		return true
	}
	_, ok := s.types[docType]
	return ok
}

// Types returns the sorted list of scoped types, or nil for AllTypes.
func (s Scope) Types() []string {
	if s.All() {
		return nil
	}
	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// String renders the scope for logs.
func (s Scope) String() string {
	if s.All() {
		return "*"
	}
	return strings.Join(s.Types(), ",")
}

// IndexBatch is the fully decorated set of documents for one type produced
// by one cycle. Once committed it becomes that type's published entry.
type IndexBatch struct {
	// Type is the document type.
	Type string

	// Documents is the complete decorated batch.
	Documents []IndexableDocument

	// RunID identifies the cycle that produced the batch.
	RunID string

	// CommittedAt is when the batch became visible.
	CommittedAt time.Time

	// Generation is the committer-wide sequence number of this commit.
	Generation uint64
}

// Len returns the number of documents in the batch.
func (b *IndexBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Documents)
}
