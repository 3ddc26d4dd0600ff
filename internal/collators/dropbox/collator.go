// Package dropbox collates text files from a Dropbox folder tree.
package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

// DefaultMaxFileSize caps downloaded content (1MB).
const DefaultMaxFileSize = 1 << 20

// DefaultExtensions are downloaded and indexed by content. Other files are
// indexed by name only.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".csv", ".json", ".yaml", ".yml"}

// ErrMissingToken indicates no access token was configured.
var ErrMissingToken = errors.New("dropbox: access token required")

// Config holds Dropbox collator configuration.
type Config struct {
	// Token is a Dropbox access token.
	Token string

	// Path is the folder to collate. Empty is the account root.
	Path string

	// Extensions are the lower-case file extensions indexed by content.
	Extensions []string

	// MaxFileSize skips downloading larger files.
	MaxFileSize uint64
}

// Collator lists a folder recursively and downloads text files.
type Collator struct {
	cfg    Config
	client files.Client
}

// New creates a Dropbox collator.
func New(cfg Config) (*Collator, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	return newWithClient(cfg, files.New(dropbox.Config{Token: cfg.Token})), nil
}

func newWithClient(cfg Config, client files.Client) *Collator {
	if cfg.Path == "/" {
		cfg.Path = ""
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &Collator{cfg: cfg, client: client}
}

// Collate returns one document per file under the configured path.
// The SDK is not context-aware; cancellation is checked between requests.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	arg := files.NewListFolderArg(c.cfg.Path)
	arg.Recursive = true

	res, err := c.client.ListFolder(arg)
	if err != nil {
		return nil, fmt.Errorf("dropbox: list %q: %w", c.cfg.Path, err)
	}

	var docs []domain.IndexableDocument
	for {
		for _, entry := range res.Entries {
			file, ok := entry.(*files.FileMetadata)
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			docs = append(docs, FileToDocument(file, c.content(file)))
		}
		if !res.HasMore {
			return docs, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err = c.client.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, fmt.Errorf("dropbox: continue listing: %w", err)
		}
	}
}

// content downloads a text file, or returns nil for files indexed by name.
func (c *Collator) content(file *files.FileMetadata) []byte {
	ext := strings.ToLower(path.Ext(file.Name))
	if !slices.Contains(c.cfg.Extensions, ext) || file.Size > c.cfg.MaxFileSize {
		return nil
	}

	_, body, err := c.client.Download(files.NewDownloadArg(file.PathLower))
	if err != nil {
		// Index the metadata; the next cycle retries the content.
		logger.Warn("dropbox: download %s: %v", file.PathDisplay, err)
		return nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, int64(c.cfg.MaxFileSize)))
	if err != nil {
		logger.Warn("dropbox: read %s: %v", file.PathDisplay, err)
		return nil
	}
	return data
}

// FileToDocument converts file metadata and its content into a document.
func FileToDocument(file *files.FileMetadata, content []byte) domain.IndexableDocument {
	text := strings.TrimSpace(string(content))
	if text == "" {
		text = file.Name
	}

	return domain.IndexableDocument{
		Title:    file.Name,
		Text:     text,
		Location: WebURL(file.PathDisplay),
		Fields: map[string]any{
			"file_id":       file.Id,
			"path":          file.PathDisplay,
			"size":          file.Size,
			"modified_time": file.ServerModified.UTC().Format(time.RFC3339),
			"rev":           file.Rev,
		},
	}
}

// WebURL returns the dropbox.com address of a path.
func WebURL(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "https://www.dropbox.com/home"
	}
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "https://www.dropbox.com/home/" + strings.Join(segments, "/")
}
