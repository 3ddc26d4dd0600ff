package search

import "errors"

// ErrNoSearchService is returned when a query is submitted without a service.
var ErrNoSearchService = errors.New("search service not available")
