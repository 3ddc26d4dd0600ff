// Package drive collates files from Google Drive. Google Docs and Slides
// are exported as plain text, Sheets as CSV, and regular text files are
// downloaded. Other files are indexed by name only.
package drive

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

const (
	// MaxContentSize caps exported or downloaded content (5MB).
	MaxContentSize = 5 * 1024 * 1024

	// DefaultPageSize is the page size of list requests.
	DefaultPageSize = 100

	// DefaultRequestsPerSecond stays below Drive's 10 requests/sec/user.
	DefaultRequestsPerSecond = 8.0
)

const listFields = "nextPageToken, files(id, name, mimeType, size, webViewLink, modifiedTime, owners(emailAddress))"

// Config holds Google Drive collator configuration.
type Config struct {
	// Token is an OAuth access token. Empty sends unauthenticated requests.
	Token string

	// FolderIDs limits collation to files directly inside these folders.
	FolderIDs []string

	// MimeTypes limits collation to these MIME types.
	MimeTypes []string

	// PageSize is the page size of list requests.
	PageSize int64

	// Endpoint overrides the API endpoint.
	Endpoint string

	// RequestsPerSecond throttles requests. Negative disables throttling.
	RequestsPerSecond float64
}

// Collator collates Drive files.
type Collator struct {
	cfg     Config
	limiter *rate.Limiter
}

// New creates a Drive collator.
func New(cfg Config) *Collator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	switch {
	case cfg.RequestsPerSecond == 0:
		limit = rate.Limit(DefaultRequestsPerSecond)
	case cfg.RequestsPerSecond < 0:
		limit = rate.Inf
	}
	return &Collator{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 10),
	}
}

func (c *Collator) service(ctx context.Context) (*drive.Service, error) {
	var opts []option.ClientOption
	if c.cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.cfg.Token})
		opts = append(opts, option.WithTokenSource(ts))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	return drive.NewService(ctx, opts...)
}

// Query returns the Drive search query for the configured filters.
func (c *Collator) Query() string {
	clauses := []string{"trashed = false", fmt.Sprintf("mimeType != '%s'", MimeTypeFolder)}
	if len(c.cfg.FolderIDs) > 0 {
		parents := make([]string, len(c.cfg.FolderIDs))
		for i, id := range c.cfg.FolderIDs {
			parents[i] = fmt.Sprintf("'%s' in parents", escapeQuery(id))
		}
		clauses = append(clauses, "("+strings.Join(parents, " or ")+")")
	}
	return strings.Join(clauses, " and ")
}

// Collate lists matching files and returns one document per file.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive: create service: %w", err)
	}

	var files []*drive.File
	call := svc.Files.List().
		Q(c.Query()).
		PageSize(c.cfg.PageSize).
		Fields(googleapi.Field(listFields))
	err = call.Pages(ctx, func(page *drive.FileList) error {
		files = append(files, page.Files...)
		return c.limiter.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("drive: list files: %w", err)
	}

	docs := make([]domain.IndexableDocument, 0, len(files))
	for _, file := range files {
		if len(c.cfg.MimeTypes) > 0 && !slices.Contains(c.cfg.MimeTypes, file.MimeType) {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		docs = append(docs, c.fileToDocument(ctx, svc, file))
	}
	return docs, nil
}

func (c *Collator) fileToDocument(ctx context.Context, svc *drive.Service, file *drive.File) domain.IndexableDocument {
	content, err := fetchFileContent(ctx, svc, file)
	if err != nil {
		// Index the metadata; the next cycle retries the content.
		logger.Warn("drive: %s (%s): %v", file.Name, file.Id, err)
	}
	text := strings.TrimSpace(content)
	if text == "" {
		text = file.Name
	}

	location := file.WebViewLink
	if location == "" {
		location = "https://drive.google.com/file/d/" + file.Id
	}

	var owner string
	if len(file.Owners) > 0 {
		owner = file.Owners[0].EmailAddress
	}

	return domain.IndexableDocument{
		Title:    file.Name,
		Text:     text,
		Location: location,
		Owner:    owner,
		Fields: map[string]any{
			"file_id":       file.Id,
			"mime_type":     file.MimeType,
			"modified_time": file.ModifiedTime,
		},
	}
}

// fetchFileContent returns the text content of a file, or "" for files
// that have none.
func fetchFileContent(ctx context.Context, svc *drive.Service, file *drive.File) (string, error) {
	switch file.MimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return exportGoogleFile(ctx, svc, file.Id, ExportMimeText)
	case MimeTypeGoogleSheet:
		return exportGoogleFile(ctx, svc, file.Id, ExportMimeCSV)
	}

	if !isTextFile(file.MimeType) || file.Size > MaxContentSize {
		return "", nil
	}

	resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), nil
}

func exportGoogleFile(ctx context.Context, svc *drive.Service, fileID, exportMime string) (string, error) {
	resp, err := svc.Files.Export(fileID, exportMime).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

var textMimeTypes = []string{
	"application/json",
	"application/xml",
	"application/javascript",
	"application/x-yaml",
	"application/x-sh",
	"application/sql",
}

// isTextFile checks if a MIME type is likely text content.
func isTextFile(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") || slices.Contains(textMimeTypes, mimeType)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
