// Package filesystem collates Markdown and plain text files from a local
// directory tree. YAML front matter supplies title, owner, lifecycle and
// extension fields.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

// DefaultMaxFileSize caps the size of a collated file (1MB).
const DefaultMaxFileSize = 1 << 20

// DefaultPatterns are the file name patterns collated when none are configured.
var DefaultPatterns = []string{"*.md", "*.markdown", "*.txt"}

// ErrMissingRoot indicates no root directory was configured.
var ErrMissingRoot = errors.New("filesystem: root directory required")

// Config holds filesystem collator configuration.
type Config struct {
	// Root is the directory to walk.
	Root string

	// Patterns are filepath.Match patterns applied to file names.
	Patterns []string

	// LocationPrefix is prepended to the slash-separated relative path.
	LocationPrefix string

	// MaxFileSize skips larger files.
	MaxFileSize int64
}

// Collator walks a directory and turns each matching file into a document.
type Collator struct {
	cfg Config
}

// New creates a filesystem collator.
func New(cfg Config) (*Collator, error) {
	if cfg.Root == "" {
		return nil, ErrMissingRoot
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns
	}
	for _, p := range cfg.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("filesystem: pattern %q: %w", p, err)
		}
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.LocationPrefix == "" {
		cfg.LocationPrefix = "/"
	}
	return &Collator{cfg: cfg}, nil
}

// Collate returns one document per matching file, in lexical path order.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	info, err := os.Stat(c.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("filesystem: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem: %s is not a directory", c.cfg.Root)
	}

	var docs []domain.IndexableDocument
	err = filepath.WalkDir(c.cfg.Root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != c.cfg.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !c.matches(d.Name()) {
			return nil
		}

		doc, ok, err := c.readDocument(p, d)
		if err != nil {
			return err
		}
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Collator) matches(name string) bool {
	for _, p := range c.cfg.Patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (c *Collator) readDocument(p string, d fs.DirEntry) (domain.IndexableDocument, bool, error) {
	info, err := d.Info()
	if err != nil {
		return domain.IndexableDocument{}, false, err
	}
	if info.Size() > c.cfg.MaxFileSize {
		logger.Debug("filesystem: skipping %s (%d bytes)", p, info.Size())
		return domain.IndexableDocument{}, false, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return domain.IndexableDocument{}, false, err
	}

	meta, body := splitFrontMatter(string(data))
	text := strings.TrimSpace(body)
	if text == "" {
		logger.Debug("filesystem: skipping empty %s", p)
		return domain.IndexableDocument{}, false, nil
	}

	rel, err := filepath.Rel(c.cfg.Root, p)
	if err != nil {
		return domain.IndexableDocument{}, false, err
	}

	doc := domain.IndexableDocument{
		Title:     stringMeta(meta, domain.FieldTitle),
		Text:      text,
		Location:  strings.TrimSuffix(c.cfg.LocationPrefix, "/") + "/" + filepath.ToSlash(rel),
		Owner:     stringMeta(meta, domain.FieldOwner),
		Lifecycle: stringMeta(meta, domain.FieldLifecycle),
	}
	if doc.Title == "" {
		doc.Title = firstHeading(body)
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
	}

	for k, v := range meta {
		switch k {
		case domain.FieldTitle, domain.FieldText, domain.FieldLocation, domain.FieldOwner, domain.FieldLifecycle:
			continue
		}
		doc = doc.WithField(k, v)
	}
	return doc, true, nil
}

func stringMeta(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return strings.TrimSpace(s)
}
