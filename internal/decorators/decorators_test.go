package decorators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func sampleDocs() []domain.IndexableDocument {
	return []domain.IndexableDocument{
		{Title: "a", Text: "hello", Location: "/a"},
		{Title: "b", Text: "world", Location: "/b", Owner: "team-b", Lifecycle: "experimental",
			Fields: map[string]any{"tier": "gold"}},
	}
}

func build(t *testing.T, kind string, cfg map[string]any) func([]domain.IndexableDocument) []domain.IndexableDocument {
	t.Helper()
	r := NewRegistry()
	RegisterDefaults(r)
	d, err := r.Build(kind, cfg)
	require.NoError(t, err)
	return func(docs []domain.IndexableDocument) []domain.IndexableDocument {
		out, err := d.Decorate(context.Background(), docs)
		require.NoError(t, err)
		return out
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{"append-text", "default-lifecycle", "default-owner", "set-field"}, r.Kinds())
	assert.True(t, r.Has("set-field"))

	_, err := r.Build("translate", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestAppendText(t *testing.T) {
	in := sampleDocs()
	out := build(t, "append-text", map[string]any{"text": "[reviewed]"})(in)

	assert.Equal(t, "hello [reviewed]", out[0].Text)
	assert.Equal(t, "world [reviewed]", out[1].Text)
	assert.Equal(t, "hello", in[0].Text)

	out = build(t, "append-text", map[string]any{"text": "!", "separator": ""})(in)
	assert.Equal(t, "hello!", out[0].Text)
}

func TestDefaultOwnerAndLifecycle(t *testing.T) {
	in := sampleDocs()
	out := build(t, "default-owner", map[string]any{"owner": "platform"})(in)
	assert.Equal(t, "platform", out[0].Owner)
	assert.Equal(t, "team-b", out[1].Owner)

	out = build(t, "default-lifecycle", map[string]any{"lifecycle": "production"})(out)
	assert.Equal(t, "production", out[0].Lifecycle)
	assert.Equal(t, "experimental", out[1].Lifecycle)
	assert.Empty(t, in[0].Owner)
}

func TestSetField(t *testing.T) {
	in := sampleDocs()
	out := build(t, "set-field", map[string]any{"field": "tier", "value": "silver"})(in)
	assert.Equal(t, "silver", out[0].Fields["tier"])
	assert.Equal(t, "gold", out[1].Fields["tier"])

	out = build(t, "set-field", map[string]any{"field": "tier", "value": "silver", "overwrite": true})(in)
	assert.Equal(t, "silver", out[1].Fields["tier"])
	assert.Equal(t, "gold", in[1].Fields["tier"])
	assert.Nil(t, in[0].Fields)
}

func TestBuildersRejectMissingSettings(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	for kind, cfg := range map[string]map[string]any{
		"append-text":       {},
		"default-owner":     {},
		"default-lifecycle": {},
		"set-field":         {"field": "tier"},
	} {
		_, err := r.Build(kind, cfg)
		assert.ErrorIs(t, err, ErrMissingSetting, kind)
	}

	_, err := r.Build("set-field", map[string]any{"field": "title", "value": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDecorate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&AppendText{Suffix: "x"}).Decorate(ctx, sampleDocs())
	assert.ErrorIs(t, err, context.Canceled)

	out, err := (&AppendText{Suffix: "x"}).Decorate(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
