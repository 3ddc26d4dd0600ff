// Package gmail collates Gmail messages matching a label and query filter.
// Each message becomes one document holding its plain text body.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

const (
	// userID addresses the authenticated mailbox.
	userID = "me"

	// DefaultMaxMessages caps a batch.
	DefaultMaxMessages = 500

	// DefaultPageSize is the page size of list requests.
	DefaultPageSize = 100

	// DefaultRequestsPerSecond stays inside Gmail's per-user quota.
	DefaultRequestsPerSecond = 10.0

	// maxBodyLength caps the indexed body text.
	maxBodyLength = 64 * 1024
)

// errMessageCap stops paging once MaxMessages ids were listed.
var errMessageCap = errors.New("gmail: message cap reached")

// DefaultLabels is collated when no labels are configured.
var DefaultLabels = []string{"INBOX"}

// Config holds Gmail collator configuration.
type Config struct {
	// Token is an OAuth access token. Empty sends unauthenticated requests.
	Token string

	// LabelIDs limits collation to messages with any of these labels.
	LabelIDs []string

	// Query is a Gmail search query, e.g. "from:alerts@example.com".
	Query string

	// MaxMessages caps the number of collated messages.
	MaxMessages int

	// IncludeSpamTrash includes messages in SPAM and TRASH.
	IncludeSpamTrash bool

	// Endpoint overrides the API endpoint.
	Endpoint string

	// RequestsPerSecond throttles requests. Negative disables throttling.
	RequestsPerSecond float64
}

// Collator collates Gmail messages.
type Collator struct {
	cfg     Config
	limiter *rate.Limiter
}

// New creates a Gmail collator.
func New(cfg Config) *Collator {
	if len(cfg.LabelIDs) == 0 {
		cfg.LabelIDs = DefaultLabels
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessages
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

func (c *Collator) service(ctx context.Context) (*gmail.Service, error) {
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
	return gmail.NewService(ctx, opts...)
}

// Collate lists matching messages and fetches each one.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}

	ids, err := c.listMessageIDs(ctx, svc)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.IndexableDocument, 0, len(ids))
	for _, id := range ids {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		msg, err := svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail: get message %s: %w", id, err)
		}
		if !c.cfg.IncludeSpamTrash && isSpamOrTrash(msg.LabelIds) {
			continue
		}
		docs = append(docs, MessageToDocument(msg))
	}
	return docs, nil
}

func (c *Collator) listMessageIDs(ctx context.Context, svc *gmail.Service) ([]string, error) {
	var ids []string
	call := svc.Users.Messages.List(userID).
		LabelIds(c.cfg.LabelIDs...).
		IncludeSpamTrash(c.cfg.IncludeSpamTrash).
		MaxResults(min(int64(c.cfg.MaxMessages), DefaultPageSize))
	if c.cfg.Query != "" {
		call = call.Q(c.cfg.Query)
	}

	err := call.Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			ids = append(ids, m.Id)
			if len(ids) >= c.cfg.MaxMessages {
				return errMessageCap
			}
		}
		return c.limiter.Wait(ctx)
	})
	if errors.Is(err, errMessageCap) {
		logger.Debug("gmail: stopped listing at %d messages", c.cfg.MaxMessages)
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gmail: list messages: %w", err)
	}
	return ids, nil
}

// MessageToDocument converts a full-format message into a document.
func MessageToDocument(msg *gmail.Message) domain.IndexableDocument {
	subject := header(msg.Payload, "Subject")
	if subject == "" {
		subject = "(no subject)"
	}

	text := strings.TrimSpace(plainText(msg.Payload))
	if text == "" {
		text = msg.Snippet
	}
	if text == "" {
		text = subject
	}
	text = truncate(text, maxBodyLength)

	thread := msg.ThreadId
	if thread == "" {
		thread = msg.Id
	}

	return domain.IndexableDocument{
		Title:    subject,
		Text:     text,
		Location: "https://mail.google.com/mail/u/0/#all/" + thread,
		Owner:    header(msg.Payload, "From"),
		Fields: map[string]any{
			"message_id": msg.Id,
			"thread_id":  msg.ThreadId,
			"labels":     msg.LabelIds,
			"date":       header(msg.Payload, "Date"),
		},
	}
}

func header(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// plainText returns the concatenated text/plain parts of a message.
func plainText(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			// Gmail sometimes omits padding.
			data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		}
		if err == nil {
			return string(data)
		}
	}

	var texts []string
	for _, child := range part.Parts {
		if t := plainText(child); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isSpamOrTrash(labels []string) bool {
	return slices.Contains(labels, "SPAM") || slices.Contains(labels, "TRASH")
}
