// Package calendar collates Google Calendar events inside a sliding time
// window. Recurring events are expanded into their instances.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Collator implements the interface.
var _ driven.Collator = (*Collator)(nil)

const (
	// DefaultCalendarID is the authenticated user's primary calendar.
	DefaultCalendarID = "primary"

	// DefaultLookBack and DefaultLookAhead bound the collated window.
	DefaultLookBack  = 30 * 24 * time.Hour
	DefaultLookAhead = 90 * 24 * time.Hour

	// DefaultPageSize is the page size of list requests.
	DefaultPageSize = 250

	// DefaultRequestsPerSecond keeps well inside the per-user quota.
	DefaultRequestsPerSecond = 5.0

	statusCancelled = "cancelled"
)

// Config holds Google Calendar collator configuration.
type Config struct {
	// Token is an OAuth access token. Empty sends unauthenticated requests.
	Token string

	// CalendarIDs are the calendars to collate. Defaults to primary.
	CalendarIDs []string

	// LookBack and LookAhead bound event start times relative to now.
	LookBack  time.Duration
	LookAhead time.Duration

	// PageSize is the page size of list requests.
	PageSize int64

	// Endpoint overrides the API endpoint.
	Endpoint string

	// RequestsPerSecond throttles requests. Negative disables throttling.
	RequestsPerSecond float64
}

// Collator collates calendar events.
type Collator struct {
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a calendar collator.
func New(cfg Config) *Collator {
	if len(cfg.CalendarIDs) == 0 {
		cfg.CalendarIDs = []string{DefaultCalendarID}
	}
	if cfg.LookBack <= 0 {
		cfg.LookBack = DefaultLookBack
	}
	if cfg.LookAhead <= 0 {
		cfg.LookAhead = DefaultLookAhead
	}
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
		limiter: rate.NewLimiter(limit, 5),
		now:     time.Now,
	}
}

func (c *Collator) service(ctx context.Context) (*calendar.Service, error) {
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
	return calendar.NewService(ctx, opts...)
}

// Collate returns one document per event instance in the window.
func (c *Collator) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar: create service: %w", err)
	}

	now := c.now()
	timeMin := now.Add(-c.cfg.LookBack).Format(time.RFC3339)
	timeMax := now.Add(c.cfg.LookAhead).Format(time.RFC3339)

	var docs []domain.IndexableDocument
	for _, calendarID := range c.cfg.CalendarIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := svc.Events.List(calendarID).
			TimeMin(timeMin).
			TimeMax(timeMax).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(c.cfg.PageSize)
		err := call.Pages(ctx, func(page *calendar.Events) error {
			for _, event := range page.Items {
				if event == nil || event.Id == "" || event.Status == statusCancelled {
					continue
				}
				docs = append(docs, EventToDocument(event, calendarID))
			}
			return c.limiter.Wait(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("calendar: list events of %s: %w", calendarID, err)
		}
	}
	return docs, nil
}

// EventToDocument converts an event into a document.
func EventToDocument(event *calendar.Event, calendarID string) domain.IndexableDocument {
	start, end := eventTimes(event)

	title := event.Summary
	if title == "" {
		title = "(no title)"
	}
	location := event.HtmlLink
	if location == "" {
		location = fmt.Sprintf("gcal://%s/events/%s", calendarID, event.Id)
	}

	fields := map[string]any{
		"event_id":    event.Id,
		"calendar_id": calendarID,
		"start_time":  start,
		"end_time":    end,
	}
	if event.Location != "" {
		fields["place"] = event.Location
	}
	if event.RecurringEventId != "" {
		fields["recurring_event_id"] = event.RecurringEventId
	}

	return domain.IndexableDocument{
		Title:    title,
		Text:     eventText(event, title),
		Location: location,
		Owner:    organiser(event),
		Fields:   fields,
	}
}

func eventText(event *calendar.Event, title string) string {
	parts := []string{title}
	if event.Description != "" {
		parts = append(parts, event.Description)
	}
	if event.Location != "" {
		parts = append(parts, "Location: "+event.Location)
	}
	if attendees := attendeeNames(event.Attendees); len(attendees) > 0 {
		parts = append(parts, "Attendees: "+strings.Join(attendees, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func attendeeNames(attendees []*calendar.EventAttendee) []string {
	var names []string
	for _, a := range attendees {
		switch {
		case a.DisplayName != "":
			names = append(names, a.DisplayName)
		case a.Email != "":
			names = append(names, a.Email)
		}
	}
	return names
}

// eventTimes returns the start and end as dateTime, or date for all-day events.
func eventTimes(event *calendar.Event) (start, end string) {
	pick := func(t *calendar.EventDateTime) string {
		if t == nil {
			return ""
		}
		if t.DateTime != "" {
			return t.DateTime
		}
		return t.Date
	}
	return pick(event.Start), pick(event.End)
}

func organiser(event *calendar.Event) string {
	if event.Organizer != nil { //nolint:misspell // Google API field name
		return event.Organizer.Email //nolint:misspell // Google API field name
	}
	return ""
}
