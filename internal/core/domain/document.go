package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Reserved wire keys for the base document properties.
const (
	FieldTitle     = "title"
	FieldText      = "text"
	FieldLocation  = "location"
	FieldOwner     = "owner"
	FieldLifecycle = "lifecycle"
)

// IndexableDocument is the shared schema every collator produces and every
// decorator consumes. It is treated as a value: components that change a
// document work on a Clone and return fresh slices.
type IndexableDocument struct {
	// Title is the primary name of the document (name, title, identifier).
	Title string

	// Text is the free-form text of the document (description, content).
	Text string

	// Location is the relative or absolute URL a search hit points at.
	Location string

	// Owner of the document. Empty means absent.
	Owner string

	// Lifecycle of the document. Empty means absent.
	Lifecycle string

	// Fields holds type-specific extension fields. The core passes them
	// through untouched; decorators and the search engine may use them.
	Fields map[string]any
}

// Validate checks the required properties are present.
func (d IndexableDocument) Validate() error {
	switch {
	case d.Title == "":
		return fmt.Errorf("%w: missing %s", ErrInvalidDocument, FieldTitle)
	case d.Text == "":
		return fmt.Errorf("%w: missing %s", ErrInvalidDocument, FieldText)
	case d.Location == "":
		return fmt.Errorf("%w: missing %s", ErrInvalidDocument, FieldLocation)
	}
	return nil
}

// Clone returns a copy whose Fields map is not shared with d.
// Field values themselves are copied shallowly.
func (d IndexableDocument) Clone() IndexableDocument {
	c := d
	if d.Fields != nil {
		c.Fields = maps.Clone(d.Fields)
	}
	return c
}

// Field returns an extension field by key.
func (d IndexableDocument) Field(key string) (any, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// WithField returns a copy of d with key set to value.
func (d IndexableDocument) WithField(key string, value any) IndexableDocument {
	c := d.Clone()
	if c.Fields == nil {
		c.Fields = make(map[string]any, 1)
	}
	c.Fields[key] = value
	return c
}

// MarshalJSON flattens extension fields next to the base properties.
// Base properties win over extension fields with the same key.
func (d IndexableDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+5)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[FieldTitle] = d.Title
	out[FieldText] = d.Text
	out[FieldLocation] = d.Location
	if d.Owner != "" {
		out[FieldOwner] = d.Owner
	}
	if d.Lifecycle != "" {
		out[FieldLifecycle] = d.Lifecycle
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire shape; unknown keys land in Fields.
func (d *IndexableDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var doc IndexableDocument
	for k, v := range raw {
		switch k {
		case FieldTitle, FieldText, FieldLocation, FieldOwner, FieldLifecycle:
			s, ok := v.(string)
			if !ok && v != nil {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidDocument, k)
			}
			doc.setBase(k, s)
		default:
			if doc.Fields == nil {
				doc.Fields = make(map[string]any)
			}
			doc.Fields[k] = v
		}
	}

	*d = doc
	return nil
}

func (d *IndexableDocument) setBase(key, value string) {
	switch key {
	case FieldTitle:
		d.Title = value
	case FieldText:
		d.Text = value
	case FieldLocation:
		d.Location = value
	case FieldOwner:
		d.Owner = value
	case FieldLifecycle:
		d.Lifecycle = value
	}
}

// CloneDocuments copies a batch so the result shares no Fields maps with docs.
func CloneDocuments(docs []IndexableDocument) []IndexableDocument {
	if docs == nil {
		return nil
	}
	out := make([]IndexableDocument, len(docs))
	for i := range docs {
		out[i] = docs[i].Clone()
	}
	return out
}
