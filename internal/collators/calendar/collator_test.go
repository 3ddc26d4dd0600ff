package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func newCalendarServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/team/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "2026-03-02T00:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2026-03-11T00:00:00Z", q.Get("timeMax"))

		if q.Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "p2",
				"items": []map[string]any{
					{
						"id": "ev1", "summary": "Incident review", "description": "Review last week's outage",
						"location": "Room 4", "htmlLink": "https://calendar.google.com/event?eid=ev1",
						"status":    "confirmed",
						"start":     map[string]any{"dateTime": "2026-03-05T10:00:00Z"},
						"end":       map[string]any{"dateTime": "2026-03-05T11:00:00Z"},
						"organizer": map[string]any{"email": "sre@example.com"},
						"attendees": []map[string]any{{"email": "a@example.com", "displayName": "Ana"}, {"email": "b@example.com"}},
					},
					{"id": "ev2", "status": "cancelled"},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "ev3", "summary": "Offsite", "start": map[string]any{"date": "2026-03-09"}, "end": map[string]any{"date": "2026-03-10"}},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCollator_Collate(t *testing.T) {
	srv := newCalendarServer(t)
	c := New(Config{
		CalendarIDs:       []string{"team"},
		LookBack:          72 * time.Hour,
		LookAhead:         6 * 24 * time.Hour,
		Endpoint:          srv.URL + "/",
		RequestsPerSecond: -1,
	})
	c.now = func() time.Time { return time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) }

	docs, err := c.Collate(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	review := docs[0]
	assert.Equal(t, "Incident review", review.Title)
	assert.Equal(t, "https://calendar.google.com/event?eid=ev1", review.Location)
	assert.Equal(t, "sre@example.com", review.Owner)
	assert.Contains(t, review.Text, "Review last week's outage")
	assert.Contains(t, review.Text, "Location: Room 4")
	assert.Contains(t, review.Text, "Attendees: Ana, b@example.com")
	assert.Equal(t, "2026-03-05T10:00:00Z", review.Fields["start_time"])
	assert.Equal(t, "team", review.Fields["calendar_id"])

	offsite := docs[1]
	assert.Equal(t, "gcal://team/events/ev3", offsite.Location)
	assert.Equal(t, "2026-03-09", offsite.Fields["start_time"])
	assert.NoError(t, offsite.Validate())
}

func TestCollator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL + "/", RequestsPerSecond: -1}).Collate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar: list events of primary")
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, []string{DefaultCalendarID}, c.cfg.CalendarIDs)
	assert.Equal(t, DefaultLookBack, c.cfg.LookBack)
	assert.Equal(t, DefaultLookAhead, c.cfg.LookAhead)
	assert.Equal(t, int64(DefaultPageSize), c.cfg.PageSize)
}

func TestEventToDocument_Untitled(t *testing.T) {
	doc := EventToDocument(&calendar.Event{Id: "x", RecurringEventId: "series"}, "primary")

	assert.Equal(t, "(no title)", doc.Title)
	assert.Equal(t, "(no title)", doc.Text)
	assert.Equal(t, "series", doc.Fields["recurring_event_id"])
	assert.NotContains(t, doc.Fields, "place")
}
