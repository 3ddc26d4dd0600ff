package tui

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("tui: search service is required")

// ErrMissingScheduler is returned when the scheduler is not provided.
var ErrMissingScheduler = errors.New("tui: scheduler is required")
