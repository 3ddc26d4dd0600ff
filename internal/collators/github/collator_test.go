package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issuesPage1 = `[
  {"number": 1, "title": "Crash on start", "body": "stack trace here", "state": "open",
   "html_url": "https://github.com/acme/api/issues/1",
   "user": {"login": "alice"}, "assignees": [{"login": "bob"}],
   "labels": [{"name": "bug"}], "updated_at": "2024-05-01T10:00:00Z"},
  {"number": 2, "title": "Add feature", "body": "", "state": "open",
   "html_url": "https://github.com/acme/api/pull/2", "user": {"login": "carol"},
   "pull_request": {"url": "https://api.github.com/repos/acme/api/pulls/2"}}
]`

const issuesPage2 = `[
  {"number": 3, "title": "Docs typo", "body": "", "state": "open",
   "html_url": "https://github.com/acme/api/issues/3", "user": {"login": "dave"}}
]`

func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/api/v3/repos/acme/api/issues", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RawQuery)
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, issuesPage2)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/repos/acme/api/issues?page=2>; rel="next"`, srv.URL))
		fmt.Fprint(w, issuesPage1)
	})
	mux.HandleFunc("/api/v3/repos/acme/missing/issues", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoRepos)

	for _, repo := range []string{"acme", "/api", "acme/", "a/b/c"} {
		_, err := New(Config{Repos: []string{repo}})
		assert.ErrorIs(t, err, ErrInvalidRepo, repo)
	}

	_, err = New(Config{Repos: []string{"acme/api"}, State: "merged"})
	assert.Error(t, err)

	c, err := New(Config{Repos: []string{" acme/api "}})
	require.NoError(t, err)
	assert.Equal(t, StateOpen, c.state)
}

func TestCollator_Collate(t *testing.T) {
	srv, calls := newTestServer(t)

	c, err := New(Config{Repos: []string{"acme/api"}, BaseURL: srv.URL, RequestsPerSecond: -1})
	require.NoError(t, err)

	docs, err := c.Collate(context.Background())
	require.NoError(t, err)
	assert.Len(t, *calls, 2)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "Crash on start", first.Title)
	assert.Equal(t, "stack trace here", first.Text)
	assert.Equal(t, "https://github.com/acme/api/issues/1", first.Location)
	assert.Equal(t, "bob", first.Owner)
	assert.Equal(t, "open", first.Lifecycle)
	assert.Equal(t, "acme/api", first.Fields["repository"])
	assert.Equal(t, 1, first.Fields["number"])
	assert.Equal(t, []any{"bug"}, first.Fields["labels"])
	assert.Equal(t, "alice", first.Fields["author"])
	assert.Equal(t, "2024-05-01T10:00:00Z", first.Fields["updated_at"])

	// Empty body falls back to the title; the author owns unassigned issues.
	second := docs[1]
	assert.Equal(t, "Docs typo", second.Text)
	assert.Equal(t, "dave", second.Owner)

	for _, doc := range docs {
		assert.NoError(t, doc.Validate())
	}
}

func TestCollator_CollateNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	c, err := New(Config{Repos: []string{"acme/api", "acme/missing"}, BaseURL: srv.URL, RequestsPerSecond: -1})
	require.NoError(t, err)

	_, err = c.Collate(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "acme/missing")
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	rl := NewRateLimiter(0)
	assert.Equal(t, GitHubRateLimit, rl.Remaining())

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Remaining", "42")
	resp.Header.Set("X-RateLimit-Limit", "60")
	resp.Header.Set("X-RateLimit-Reset", "1700000000")
	rl.UpdateFromResponse(resp)

	assert.Equal(t, 42, rl.Remaining())
	assert.Equal(t, 60, rl.Limit())
	assert.Equal(t, int64(1700000000), rl.ResetTime().Unix())

	// The reset time is in the past, so Wait does not block.
	require.NoError(t, rl.Wait(context.Background()))
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(0)
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Remaining", "0")
	resp.Header.Set("X-RateLimit-Reset", fmt.Sprint(1<<40))
	rl.UpdateFromResponse(resp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsUnauthorized(&APIError{StatusCode: 401}))
	assert.False(t, IsUnauthorized(&APIError{StatusCode: 404}))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", &RateLimitError{})))
	assert.Contains(t, (&APIError{StatusCode: 500, Message: "boom"}).Error(), "500")
}
