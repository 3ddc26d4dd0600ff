package bleve

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func doc(title, text string) domain.IndexableDocument {
	return domain.IndexableDocument{Title: title, Text: text, Location: "/" + title}
}

func TestEngine_ReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.Replace(ctx, "docs", []domain.IndexableDocument{
		doc("intro", "hello world"),
		doc("setup", "install the indexer"),
	}))

	results, err := e.Search(ctx, "hello", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs", results[0].Type)
	assert.Equal(t, "intro", results[0].Document.Title)
	assert.Greater(t, results[0].Score, 0.0)

	count, err := e.Count("docs")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestEngine_ReplaceDiscardsOldSet(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.Replace(ctx, "docs", []domain.IndexableDocument{doc("old", "legacy content")}))
	require.NoError(t, e.Replace(ctx, "docs", []domain.IndexableDocument{doc("new", "fresh content")}))

	results, err := e.Search(ctx, "legacy", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Search(ctx, "fresh", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Document.Title)
}

func TestEngine_TypeFilterAndAlias(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.Replace(ctx, "docs", []domain.IndexableDocument{doc("a", "shared term")}))
	require.NoError(t, e.Replace(ctx, "api", []domain.IndexableDocument{doc("b", "shared term")}))
	require.NoError(t, e.Replace(ctx, "team/people", []domain.IndexableDocument{doc("c", "shared term")}))

	all, err := e.Search(ctx, "shared", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := e.Search(ctx, "shared", domain.SearchOptions{Types: []string{"team/people"}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "team/people", filtered[0].Type)
	assert.Equal(t, "c", filtered[0].Document.Title)

	none, err := e.Search(ctx, "shared", domain.SearchOptions{Types: []string{"missing"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEngine_ExtensionFieldsAreSearchable(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	d := doc("runbook", "restart procedure").WithField("system", "payments")
	require.NoError(t, e.Replace(ctx, "docs", []domain.IndexableDocument{d}))

	results, err := e.Search(ctx, "payments", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	v, ok := results[0].Document.Field("system")
	assert.True(t, ok)
	assert.Equal(t, "payments", v)
}

func TestEngine_LimitAndOffset(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	docs := make([]domain.IndexableDocument, 5)
	for i := range docs {
		docs[i] = domain.IndexableDocument{Title: "page", Text: "common", Location: "/p" + string(rune('a'+i))}
	}
	require.NoError(t, e.Replace(ctx, "docs", docs))

	page, err := e.Search(ctx, "common", domain.SearchOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newEngine(t)
	results, err := e.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_CancelledReplaceKeepsPrevious(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.Replace(context.Background(), "docs", []domain.IndexableDocument{doc("kept", "survivor")}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Replace(ctx, "docs", []domain.IndexableDocument{doc("lost", "replacement")})
	require.ErrorIs(t, err, context.Canceled)

	results, err := e.Search(context.Background(), "survivor", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestEngine_Closed(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Search(context.Background(), "x", domain.SearchOptions{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Replace(context.Background(), "docs", nil), ErrClosed)
}

func TestEngine_ConcurrentReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	oldSet := []domain.IndexableDocument{doc("one", "alpha"), doc("two", "alpha")}
	newSet := []domain.IndexableDocument{doc("three", "alpha"), doc("four", "alpha"), doc("five", "alpha")}
	require.NoError(t, e.Replace(ctx, "docs", oldSet))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 20 {
			set := oldSet
			if i%2 == 0 {
				set = newSet
			}
			_ = e.Replace(ctx, "docs", set)
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			results, err := e.Search(ctx, "alpha", domain.SearchOptions{})
			if err != nil {
				t.Error(err)
				return
			}
			// A search sees one complete set, never a mix.
			if len(results) != len(oldSet) && len(results) != len(newSet) {
				t.Errorf("saw %d results", len(results))
			}
		}
	}()
	wg.Wait()
}
