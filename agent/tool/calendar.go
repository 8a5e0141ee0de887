package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

const (
	ToolListCalendarEvents = "list_calendar_events"
	ToolCreateEvent        = "create_calendar_event"

	defaultCalendarBaseURL  = "https://www.googleapis.com/calendar/v3"
	defaultCalendarTimezone = "America/Los_Angeles"
	maxListedEvents         = 50
)

// EventSummary is the list_calendar_events payload entry.
type EventSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateEventOutput is the create_calendar_event payload.
type CreateEventOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarClient exposes the Google Calendar REST API as registry tools.
type CalendarClient struct {
	rest     *googleREST
	baseURL  string
	timezone string
	now      func() time.Time
}

type CalendarOption func(*CalendarClient)

func WithCalendarBaseURL(baseURL string) CalendarOption {
	return func(c *CalendarClient) {
		if v := strings.TrimRight(strings.TrimSpace(baseURL), "/"); v != "" {
			c.baseURL = v
		}
	}
}

func WithCalendarHTTPClient(hc *http.Client) CalendarOption {
	return func(c *CalendarClient) {
		if hc != nil {
			c.rest.httpClient = hc
		}
	}
}

func WithCalendarTimezone(tz string) CalendarOption {
	return func(c *CalendarClient) {
		if v := strings.TrimSpace(tz); v != "" {
			c.timezone = v
		}
	}
}

func WithCalendarClock(now func() time.Time) CalendarOption {
	return func(c *CalendarClient) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCalendarClient(creds Credentials, opts ...CalendarOption) *CalendarClient {
	c := &CalendarClient{
		rest: &googleREST{
			creds:      creds,
			httpClient: &http.Client{Timeout: 30 * time.Second},
		},
		baseURL:  defaultCalendarBaseURL,
		timezone: defaultCalendarTimezone,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterTools adds list_calendar_events and create_calendar_event.
func (c *CalendarClient) RegisterTools(r *Registry) error {
	if err := r.Register(contractx.ToolSpec{
		Name:        ToolListCalendarEvents,
		Description: "List the user's calendar events for a time period.",
		Params: map[string]contractx.ParamSpec{
			"days_ahead": {
				Type:        "integer",
				Description: "Number of days to look ahead",
				Default:     7,
			},
			"include_today": {
				Type:        "boolean",
				Description: "Include all of today's events, even past ones",
				Default:     true,
			},
		},
	}, c.handleList); err != nil {
		return err
	}

	return r.Register(contractx.ToolSpec{
		Name:        ToolCreateEvent,
		Description: "Create a new calendar event.",
		Params: map[string]contractx.ParamSpec{
			"title":       {Type: "string", Description: "Event title", Required: true},
			"date":        {Type: "string", Description: "Date in YYYY-MM-DD format", Required: true},
			"start_time":  {Type: "string", Description: "Start time in HH:MM 24-hour format", Required: true},
			"end_time":    {Type: "string", Description: "End time in HH:MM 24-hour format", Required: true},
			"location":    {Type: "string", Description: "Event location", Default: ""},
			"description": {Type: "string", Description: "Event description", Default: ""},
		},
	}, c.handleCreate)
}

func (c *CalendarClient) handleList(ctx context.Context, args map[string]any) (any, error) {
	daysAhead, _ := args["days_ahead"].(int)
	if daysAhead <= 0 {
		daysAhead = 7
	}
	includeToday, _ := args["include_today"].(bool)
	return c.ListEvents(ctx, daysAhead, includeToday)
}

func (c *CalendarClient) handleCreate(ctx context.Context, args map[string]any) (any, error) {
	title, _ := args["title"].(string)
	date, _ := args["date"].(string)
	startTime, _ := args["start_time"].(string)
	endTime, _ := args["end_time"].(string)
	location, _ := args["location"].(string)
	description, _ := args["description"].(string)
	return c.CreateEvent(ctx, title, date, startTime, endTime, location, description)
}

type calendarDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type calendarEvent struct {
	ID          string           `json:"id,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Start       calendarDateTime `json:"start,omitempty"`
	End         calendarDateTime `json:"end,omitempty"`
	Location    string           `json:"location,omitempty"`
	Description string           `json:"description,omitempty"`
}

type calendarListResponse struct {
	Items []calendarEvent `json:"items"`
}

// ListEvents returns upcoming events ordered by start time.
func (c *CalendarClient) ListEvents(ctx context.Context, daysAhead int, includeToday bool) ([]EventSummary, error) {
	now := c.now().UTC()
	timeMin := now
	if includeToday {
		timeMin = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	timeMax := now.AddDate(0, 0, daysAhead)

	q := url.Values{}
	q.Set("timeMin", timeMin.Format(time.RFC3339))
	q.Set("timeMax", timeMax.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", strconv.Itoa(maxListedEvents))

	var listed calendarListResponse
	if err := c.rest.doJSON(ctx, http.MethodGet, c.baseURL+"/calendars/primary/events", q, nil, &listed); err != nil {
		return nil, err
	}

	events := make([]EventSummary, 0, len(listed.Items))
	for _, item := range listed.Items {
		events = append(events, EventSummary{
			ID:          item.ID,
			Title:       orDefault(item.Summary, "No title"),
			Start:       orDefault(item.Start.DateTime, item.Start.Date),
			End:         orDefault(item.End.DateTime, item.End.Date),
			Location:    item.Location,
			Description: truncate(item.Description, 300),
		})
	}

	log.Debug().Int("days_ahead", daysAhead).Int("events", len(events)).Msg("calendar listing completed")
	return events, nil
}

// CreateEvent creates an event on the primary calendar. Date and times are
// local to the configured calendar time zone.
func (c *CalendarClient) CreateEvent(ctx context.Context, title, date, startTime, endTime, location, description string) (CreateEventOutput, error) {
	start, err := localDateTime(date, startTime)
	if err != nil {
		return CreateEventOutput{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	end, err := localDateTime(date, endTime)
	if err != nil {
		return CreateEventOutput{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	payload := calendarEvent{
		Summary:     title,
		Start:       calendarDateTime{DateTime: start, TimeZone: c.timezone},
		End:         calendarDateTime{DateTime: end, TimeZone: c.timezone},
		Location:    location,
		Description: description,
	}

	var created calendarEvent
	if err := c.rest.doJSON(ctx, http.MethodPost, c.baseURL+"/calendars/primary/events", nil, payload, &created); err != nil {
		return CreateEventOutput{}, err
	}

	log.Info().Str("title", title).Str("start", start).Str("event_id", created.ID).Msg("calendar event created")
	return CreateEventOutput{
		ID:    created.ID,
		Title: title,
		Start: start,
		End:   end,
	}, nil
}

func localDateTime(date, clock string) (string, error) {
	d := strings.TrimSpace(date)
	t := strings.TrimSpace(clock)
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	if _, err := time.Parse("15:04", t); err != nil {
		return "", fmt.Errorf("invalid time %q, want HH:MM", clock)
	}
	return d + "T" + t + ":00", nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
