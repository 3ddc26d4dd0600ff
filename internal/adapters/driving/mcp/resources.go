package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// uriScheme is the custom URI scheme for indexer resources.
const uriScheme = "sercha://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "types",
		Name:        "types",
		Description: "Published document types with batch sizes and commit times",
		MIMEType:    "application/json",
	}, s.handleTypesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "types/{type}/documents",
		Name:        "type-documents",
		Description: "The published batch of a document type",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleTypesResource returns the stats of every published type.
func (s *Server) handleTypesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Search.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	if stats == nil {
		stats = []domain.TypeStats{}
	}
	return jsonResource(req.Params.URI, stats)
}

// handleDocumentsResource returns the published documents of one type.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docType := extractType(req.Params.URI)
	if docType == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Search.Documents(ctx, docType)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if docs == nil {
		docs = []domain.IndexableDocument{}
	}
	return jsonResource(req.Params.URI, docs)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractType extracts the type from a URI like sercha://types/{type}/documents.
func extractType(uri string) string {
	rest, ok := strings.CutPrefix(uri, uriScheme+"types/")
	if !ok {
		return ""
	}
	docType, ok := strings.CutSuffix(rest, "/documents")
	if !ok || strings.Contains(docType, "/") {
		return ""
	}
	return docType
}
