package tool

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
}

func TestListEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/primary/events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("timeMin"); got != "2025-06-02T00:00:00Z" {
			t.Errorf("unexpected timeMin: %q", got)
		}
		if got := q.Get("timeMax"); got != "2025-06-09T15:30:00Z" {
			t.Errorf("unexpected timeMax: %q", got)
		}
		if got := q.Get("orderBy"); got != "startTime" {
			t.Errorf("unexpected orderBy: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":      "e1",
					"summary": "Standup",
					"start":   map[string]string{"dateTime": "2025-06-03T09:00:00-07:00"},
					"end":     map[string]string{"dateTime": "2025-06-03T09:15:00-07:00"},
				},
				{
					"id":    "e2",
					"start": map[string]string{"date": "2025-06-04"},
					"end":   map[string]string{"date": "2025-06-05"},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewCalendarClient(&fakeCreds{},
		WithCalendarBaseURL(srv.URL),
		WithCalendarHTTPClient(srv.Client()),
		WithCalendarClock(fixedClock),
	)

	events, err := client.ListEvents(context.Background(), 7, true)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Standup" || events[0].Start != "2025-06-03T09:00:00-07:00" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Title != "No title" || events[1].Start != "2025-06-04" {
		t.Fatalf("untitled all-day event not normalized: %+v", events[1])
	}
}

func TestListEventsExcludingToday(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("timeMin"); got != "2025-06-02T15:30:00Z" {
			t.Errorf("expected timeMin at now, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	client := NewCalendarClient(&fakeCreds{},
		WithCalendarBaseURL(srv.URL),
		WithCalendarHTTPClient(srv.Client()),
		WithCalendarClock(fixedClock),
	)

	if _, err := client.ListEvents(context.Background(), 3, false); err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var payload calendarEvent
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Summary != "Dentist" {
			t.Errorf("unexpected summary: %q", payload.Summary)
		}
		if payload.Start.DateTime != "2025-06-05T14:00:00" || payload.Start.TimeZone != "America/New_York" {
			t.Errorf("unexpected start: %+v", payload.Start)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "created-1"})
	}))
	defer srv.Close()

	client := NewCalendarClient(&fakeCreds{},
		WithCalendarBaseURL(srv.URL),
		WithCalendarHTTPClient(srv.Client()),
		WithCalendarTimezone("America/New_York"),
	)

	out, err := client.CreateEvent(context.Background(), "Dentist", "2025-06-05", "14:00", "15:00", "", "")
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if out.ID != "created-1" || out.Start != "2025-06-05T14:00:00" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestCreateEventRejectsBadDateTime(t *testing.T) {
	t.Parallel()

	client := NewCalendarClient(&fakeCreds{})

	_, err := client.CreateEvent(context.Background(), "x", "tomorrow", "14:00", "15:00", "", "")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}

	_, err = client.CreateEvent(context.Background(), "x", "2025-06-05", "2pm", "3pm", "", "")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad time, got %v", err)
	}
}
