// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// indexer. It lets AI assistants search the published index, inspect the
// scheduler and request a refresh of a document type.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrSchedulerUnavailable is returned by tools that need the scheduler when
// none was provided.
var ErrSchedulerUnavailable = errors.New("mcp: scheduler is not available")
