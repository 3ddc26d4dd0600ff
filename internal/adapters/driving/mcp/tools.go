package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string   `json:"query" jsonschema:"the search query; empty lists published documents"`
	Types  []string `json:"types,omitempty" jsonschema:"document types to search; empty searches all"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Offset int      `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Location  string  `json:"location"`
	Owner     string  `json:"owner,omitempty"`
	Lifecycle string  `json:"lifecycle,omitempty"`
	Score     float64 `json:"score"`
	Text      string  `json:"text,omitempty"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Types []TypeStatusOutput `json:"types"`
}

// TypeStatusOutput is the schedule of one document type.
type TypeStatusOutput struct {
	Type            string     `json:"type"`
	State           string     `json:"state"`
	IntervalSeconds int        `json:"interval_seconds"`
	LastRun         *time.Time `json:"last_run,omitempty"`
	NextRun         *time.Time `json:"next_run,omitempty"`
	LastSuccess     *time.Time `json:"last_success,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	Documents       int        `json:"documents"`
}

// RefreshInput is the input schema for the refresh tool.
type RefreshInput struct {
	Type string `json:"type" jsonschema:"the document type to collate now"`
}

// RefreshOutput is the output schema for the refresh tool.
type RefreshOutput struct {
	RunID     string `json:"run_id"`
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	Stage     string `json:"stage"`
	Documents int    `json:"documents"`
	Error     string `json:"error,omitempty"`
}

// maxTextLength bounds the document text returned per hit.
const maxTextLength = 500

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the published documents of every indexed type",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Show the refresh schedule and last result of every document type",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refresh",
		Description: "Collate, decorate and publish one document type now",
	}, s.handleRefresh)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Types:  input.Types,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		doc := results[i].Document
		output.Results[i] = SearchResultOutput{
			Type:      results[i].Type,
			Title:     doc.Title,
			Location:  doc.Location,
			Owner:     doc.Owner,
			Lifecycle: doc.Lifecycle,
			Score:     results[i].Score,
			Text:      truncate(doc.Text, maxTextLength),
		}
	}

	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Scheduler == nil {
		return nil, StatusOutput{}, ErrSchedulerUnavailable
	}

	schedules := s.ports.Scheduler.Status()
	output := StatusOutput{Types: make([]TypeStatusOutput, len(schedules))}
	for i, sch := range schedules {
		output.Types[i] = TypeStatusOutput{
			Type:            sch.Type,
			State:           string(sch.State),
			IntervalSeconds: int(sch.Interval / time.Second),
			LastRun:         optionalTime(sch.LastRun),
			NextRun:         optionalTime(sch.NextRun),
			LastSuccess:     optionalTime(sch.LastSuccess),
			LastError:       sch.LastError,
			Documents:       sch.Documents,
		}
	}
	return nil, output, nil
}

// handleRefresh handles the refresh tool invocation. A failed cycle is
// reported in the output; only a rejected request is a tool error.
func (s *Server) handleRefresh(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RefreshInput,
) (*mcp.CallToolResult, RefreshOutput, error) {
	if s.ports.Scheduler == nil {
		return nil, RefreshOutput{}, ErrSchedulerUnavailable
	}

	result, err := s.ports.Scheduler.Trigger(ctx, input.Type)
	if err != nil && result.RunID == "" {
		return nil, RefreshOutput{}, err
	}

	return nil, RefreshOutput{
		RunID:     result.RunID,
		Type:      result.Type,
		Success:   result.Success,
		Stage:     string(result.Stage),
		Documents: result.Documents,
		Error:     result.Error,
	}, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
