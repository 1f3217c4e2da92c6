package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/calbridge/calbridge/internal/instrumentation"
)

// ErrEventNotFound is returned when the upstream calendar reports the event
// id unknown. Any other upstream failure passes through wrapped with its
// original message.
var ErrEventNotFound = errors.New("event not found")

// DefaultCalendarID is the calendar operated on when none is configured.
const DefaultCalendarID = "primary"

// Options configures a Client.
type Options struct {
	// TokenSource supplies the OAuth access token for each request.
	TokenSource oauth2.TokenSource

	// HTTPClient overrides TokenSource entirely. Used by tests.
	HTTPClient *http.Client

	// Endpoint overrides the Calendar API base URL. Used by tests.
	Endpoint string

	// CalendarID defaults to "primary".
	CalendarID string

	// TimeZone is attached to event times when the caller omits one.
	TimeZone string
}

// Client wraps the Google Calendar service for a single calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	timeZone   string
	metrics    *instrumentation.Metrics
}

// NewClient creates a Calendar client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.TokenSource != nil:
		clientOpts = append(clientOpts, option.WithTokenSource(opts.TokenSource))
	default:
		return nil, fmt.Errorf("token source cannot be nil")
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		timeZone:   opts.TimeZone,
	}, nil
}

// SetMetrics attaches a metrics recorder. May be nil.
func (c *Client) SetMetrics(metrics *instrumentation.Metrics) {
	c.metrics = metrics
}

// record reports one upstream Calendar call to the metrics recorder.
func (c *Client) record(ctx context.Context, op string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, time.Since(start))
}

// ListOptions narrows an event listing. TimeMin is required; the dispatcher
// defaults it to the current instant.
type ListOptions struct {
	TimeMin    string
	TimeMax    string
	MaxResults int64
}

// ListEvents lists events ordered by start time, with recurring instances
// expanded. Upstream order (chronological ascending) is preserved. An empty
// result is not an error.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) ([]Event, error) {
	call := c.svc.Events.List(c.calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(opts.TimeMin)

	if opts.TimeMax != "" {
		call = call.TimeMax(opts.TimeMax)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}

	start := time.Now()
	res, err := call.Do()
	c.record(ctx, "list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// GetEvent retrieves a single event by id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	start := time.Now()
	ev, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "get", start, err)
	if err != nil {
		return nil, narrowNotFound("get", eventID, err)
	}

	out := toEvent(ev)
	return &out, nil
}

// CreateEvent creates a new event. The client time zone is applied when the
// input omits one.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	timeZone := input.TimeZone
	if timeZone == "" {
		timeZone = c.timeZone
	}

	ev := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       eventDateTime(input.Start, timeZone),
		End:         eventDateTime(input.End, timeZone),
		Attendees:   toAttendees(input.Attendees),
	}

	start := time.Now()
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	c.record(ctx, "create", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	out := toEvent(created)
	return &out, nil
}

// UpdateEvent fetches the current event, merges the patch onto it, and
// writes the result back. Fields the patch leaves nil keep their stored
// values.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch EventPatch) (*Event, error) {
	start := time.Now()
	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "get", start, err)
	if err != nil {
		return nil, narrowNotFound("update", eventID, err)
	}

	mergeEvent(existing, patch, c.timeZone)

	start = time.Now()
	updated, err := c.svc.Events.Update(c.calendarID, eventID, existing).Context(ctx).Do()
	c.record(ctx, "update", start, err)
	if err != nil {
		return nil, narrowNotFound("update", eventID, err)
	}

	out := toEvent(updated)
	return &out, nil
}

// DeleteEvent fetches the event first, so the caller can be told what was
// deleted, then deletes it. Deleting an already-deleted id reports
// not-found, not success.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (*Event, error) {
	start := time.Now()
	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "get", start, err)
	if err != nil {
		return nil, narrowNotFound("delete", eventID, err)
	}

	start = time.Now()
	err = c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	c.record(ctx, "delete", start, err)
	if err != nil {
		return nil, narrowNotFound("delete", eventID, err)
	}

	out := toEvent(existing)
	return &out, nil
}

// narrowNotFound maps an upstream 404 to ErrEventNotFound and wraps
// everything else with the operation for context.
func narrowNotFound(op, eventID string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return fmt.Errorf("failed to %s event %s: %w", op, eventID, err)
}
