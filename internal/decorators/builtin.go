package decorators

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

var (
	_ driven.Decorator = (*AppendText)(nil)
	_ driven.Decorator = (*DefaultOwner)(nil)
	_ driven.Decorator = (*DefaultLifecycle)(nil)
	_ driven.Decorator = (*SetField)(nil)
)

// ErrMissingSetting indicates a required decorator setting is absent.
var ErrMissingSetting = errors.New("decorator: missing setting")

// mapDocs applies fn to a copy of every document, checking ctx between
// documents.
func mapDocs(
	ctx context.Context,
	docs []domain.IndexableDocument,
	fn func(domain.IndexableDocument) domain.IndexableDocument,
) ([]domain.IndexableDocument, error) {
	out := make([]domain.IndexableDocument, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = fn(doc.Clone())
	}
	return out, nil
}

// AppendText appends a suffix to every document's text.
type AppendText struct {
	Suffix    string
	Separator string
}

// Decorate appends the suffix.
func (d *AppendText) Decorate(ctx context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error) {
	return mapDocs(ctx, docs, func(doc domain.IndexableDocument) domain.IndexableDocument {
		doc.Text += d.Separator + d.Suffix
		return doc
	})
}

// DefaultOwner sets the owner of documents that have none.
type DefaultOwner struct {
	Owner string
}

// Decorate fills in missing owners.
func (d *DefaultOwner) Decorate(ctx context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error) {
	return mapDocs(ctx, docs, func(doc domain.IndexableDocument) domain.IndexableDocument {
		if strings.TrimSpace(doc.Owner) == "" {
			doc.Owner = d.Owner
		}
		return doc
	})
}

// DefaultLifecycle sets the lifecycle of documents that have none.
type DefaultLifecycle struct {
	Lifecycle string
}

// Decorate fills in missing lifecycles.
func (d *DefaultLifecycle) Decorate(
	ctx context.Context, docs []domain.IndexableDocument,
) ([]domain.IndexableDocument, error) {
	return mapDocs(ctx, docs, func(doc domain.IndexableDocument) domain.IndexableDocument {
		if strings.TrimSpace(doc.Lifecycle) == "" {
			doc.Lifecycle = d.Lifecycle
		}
		return doc
	})
}

// SetField sets an extension field on every document.
type SetField struct {
	Field     string
	Value     any
	Overwrite bool
}

// Decorate sets the field, keeping existing values unless Overwrite is set.
func (d *SetField) Decorate(ctx context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error) {
	return mapDocs(ctx, docs, func(doc domain.IndexableDocument) domain.IndexableDocument {
		if _, exists := doc.Field(d.Field); exists && !d.Overwrite {
			return doc
		}
		return doc.WithField(d.Field, d.Value)
	})
}
