package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

// Issue states accepted by the API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Config holds GitHub collator configuration.
type Config struct {
	// Token is a personal access token. Empty makes unauthenticated requests.
	Token string

	// Repos lists repositories as owner/name.
	Repos []string

	// State filters issues by state. Defaults to open.
	State string

	// Labels filters issues carrying all of the labels.
	Labels []string

	// BaseURL targets a GitHub Enterprise server.
	BaseURL string

	// RequestsPerSecond throttles requests. Defaults to ProactiveRate.
	RequestsPerSecond float64
}

type repoRef struct {
	owner, name string
}

func (r repoRef) String() string { return r.owner + "/" + r.name }

// Collator collates the issues of the configured repositories.
type Collator struct {
	client *Client
	repos  []repoRef
	state  string
	labels []string
}

// New creates a GitHub collator.
func New(cfg Config) (*Collator, error) {
	if len(cfg.Repos) == 0 {
		return nil, ErrNoRepos
	}

	repos := make([]repoRef, 0, len(cfg.Repos))
	for _, r := range cfg.Repos {
		owner, name, ok := strings.Cut(strings.TrimSpace(r), "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRepo, r)
		}
		repos = append(repos, repoRef{owner: owner, name: name})
	}

	state := cfg.State
	switch state {
	case "":
		state = StateOpen
	case StateOpen, StateClosed, StateAll:
	default:
		return nil, fmt.Errorf("github: invalid state %q", cfg.State)
	}

	perSecond := cfg.RequestsPerSecond
	if perSecond == 0 {
		perSecond = ProactiveRate
	}
	client, err := NewClient(cfg.Token, cfg.BaseURL, perSecond)
	if err != nil {
		return nil, err
	}

	return &Collator{
		client: client,
		repos:  repos,
		state:  state,
		labels: cfg.Labels,
	}, nil
}

// Collate returns one document per issue across all repositories.
// Any repository failing fails the whole collation.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	var docs []domain.IndexableDocument
	for _, repo := range c.repos {
		opts := &gh.IssueListByRepoOptions{
			State:       c.state,
			Labels:      c.labels,
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: gh.ListOptions{PerPage: 100},
		}

		issues, err := c.client.ListIssues(ctx, repo.owner, repo.name, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", repo, err)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			docs = append(docs, issueToDocument(repo, issue))
		}
	}
	return docs, nil
}

func issueToDocument(repo repoRef, issue *gh.Issue) domain.IndexableDocument {
	text := strings.TrimSpace(issue.GetBody())
	if text == "" {
		text = issue.GetTitle()
	}

	owner := issue.GetUser().GetLogin()
	if assignees := issue.Assignees; len(assignees) > 0 {
		owner = assignees[0].GetLogin()
	}

	labels := make([]any, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	location := issue.GetHTMLURL()
	if location == "" {
		location = fmt.Sprintf("https://github.com/%s/issues/%d", repo, issue.GetNumber())
	}

	return domain.IndexableDocument{
		Title:     issue.GetTitle(),
		Text:      text,
		Location:  location,
		Owner:     owner,
		Lifecycle: issue.GetState(),
		Fields: map[string]any{
			"repository": repo.String(),
			"number":     issue.GetNumber(),
			"labels":     labels,
			"author":     issue.GetUser().GetLogin(),
			"updated_at": issue.GetUpdatedAt().Format(time.RFC3339),
		},
	}
}
