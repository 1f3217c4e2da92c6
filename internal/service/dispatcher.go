package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/calbridge/calbridge/internal/auth"
	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
)

// Result bounds on list_events.
const (
	defaultMaxResults = 10
	minMaxResults     = 1
	maxMaxResults     = 50
)

// Authorizer is the slice of the token manager the dispatcher needs.
type Authorizer interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) error
	Token(ctx context.Context) (*oauth2.Token, error)
	Status() auth.Status
}

// API is the slice of the calendar client the dispatcher needs.
type API interface {
	ListEvents(ctx context.Context, opts calendar.ListOptions) ([]calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, eventID string, patch calendar.EventPatch) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) (*calendar.Event, error)
}

// ToolRequest is a transport-neutral tool invocation. Arguments is the
// decoded JSON argument object.
type ToolRequest struct {
	Name      string
	Arguments map[string]any
}

// Result carries both renderings of a successful invocation: Text for chat
// surfaces, Data for structured consumers.
type Result struct {
	Text string
	Data any
}

// Dispatcher maps tool requests to handlers. It is the single business-logic
// entry point shared by the MCP, REST, and tool-calling transports, so the
// six tools behave identically no matter which face received the call.
type Dispatcher struct {
	auth    Authorizer
	cal     API
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// now is replaceable in tests.
	now func() time.Time
}

// NewDispatcher creates a dispatcher over the given authorizer and calendar
// API.
func NewDispatcher(authorizer Authorizer, cal API, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		auth:   authorizer,
		cal:    cal,
		logger: logger.With(logging.Service("dispatcher")),
		now:    time.Now,
	}
}

// SetMetrics attaches a metrics recorder. May be nil.
func (d *Dispatcher) SetMetrics(metrics *instrumentation.Metrics) {
	d.metrics = metrics
}

// Dispatch routes a request to its handler. Errors keep their type so
// transports can map them to their own status vocabulary.
func (d *Dispatcher) Dispatch(ctx context.Context, req ToolRequest) (*Result, error) {
	start := d.now()

	var (
		res *Result
		err error
	)

	switch req.Name {
	case ToolGetAuthURL:
		res, err = d.handleGetAuthURL(ctx)
	case ToolGetAuthStatus:
		res, err = d.handleGetAuthStatus(ctx)
	case ToolListEvents:
		res, err = d.handleListEvents(ctx, req.Arguments)
	case ToolCreateEvent:
		res, err = d.handleCreateEvent(ctx, req.Arguments)
	case ToolUpdateEvent:
		res, err = d.handleUpdateEvent(ctx, req.Arguments)
	case ToolDeleteEvent:
		res, err = d.handleDeleteEvent(ctx, req.Arguments)
	default:
		err = &UnknownToolError{Name: req.Name}
	}

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	d.metrics.RecordToolInvocation(ctx, req.Name, status, time.Since(start))
	d.logger.Debug("tool dispatched",
		logging.Tool(req.Name),
		logging.Status(status),
		logging.Err(err),
	)

	return res, err
}

func (d *Dispatcher) handleGetAuthURL(ctx context.Context) (*Result, error) {
	url := d.auth.AuthURL()
	return &Result{
		Text: fmt.Sprintf("Open this URL in a browser to authorize calendar access:\n\n%s", url),
		Data: map[string]string{"auth_url": url},
	}, nil
}

func (d *Dispatcher) handleGetAuthStatus(ctx context.Context) (*Result, error) {
	status := d.auth.Status()

	var text string
	switch {
	case !status.Authenticated:
		text = "Not authenticated. Use get_auth_url to start the authorization flow."
	case status.Expired:
		text = "Authenticated, but the access token has expired. It will be refreshed on the next calendar call."
	default:
		text = fmt.Sprintf("Authenticated. Access token valid until %s.", status.Expiry.Format(time.RFC3339))
	}

	return &Result{Text: text, Data: status}, nil
}

func (d *Dispatcher) handleListEvents(ctx context.Context, args map[string]any) (*Result, error) {
	timeMin, err := optionalTimeArg(args, "timeMin")
	if err != nil {
		return nil, err
	}
	if timeMin == "" {
		timeMin = d.now().UTC().Format(time.RFC3339)
	}

	timeMax, err := optionalTimeArg(args, "timeMax")
	if err != nil {
		return nil, err
	}

	maxResults, err := intArg(args, "maxResults", defaultMaxResults)
	if err != nil {
		return nil, err
	}
	if maxResults < minMaxResults {
		maxResults = minMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	events, err := d.cal.ListEvents(ctx, calendar.ListOptions{
		TimeMin:    timeMin,
		TimeMax:    timeMax,
		MaxResults: int64(maxResults),
	})
	if err != nil {
		return nil, err
	}

	return &Result{Text: formatEventList(events), Data: events}, nil
}

func (d *Dispatcher) handleCreateEvent(ctx context.Context, args map[string]any) (*Result, error) {
	summary, err := requiredStringArg(args, "summary")
	if err != nil {
		return nil, err
	}
	start, err := requiredTimeArg(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := requiredTimeArg(args, "end")
	if err != nil {
		return nil, err
	}

	input := calendar.EventInput{
		Summary: summary,
		Start:   start,
		End:     end,
	}
	if desc, ok, err := stringArg(args, "description"); err != nil {
		return nil, err
	} else if ok {
		input.Description = desc
	}
	if loc, ok, err := stringArg(args, "location"); err != nil {
		return nil, err
	} else if ok {
		input.Location = loc
	}
	if tz, ok, err := stringArg(args, "timeZone"); err != nil {
		return nil, err
	} else if ok {
		input.TimeZone = tz
	}
	attendees, err := attendeesArg(args)
	if err != nil {
		return nil, err
	}
	input.Attendees = attendees

	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	event, err := d.cal.CreateEvent(ctx, input)
	if err != nil {
		return nil, err
	}

	d.logger.Info("event created", logging.EventID(event.ID))
	return &Result{Text: formatEvent("Successfully created event", event), Data: event}, nil
}

func (d *Dispatcher) handleUpdateEvent(ctx context.Context, args map[string]any) (*Result, error) {
	eventID, err := requiredStringArg(args, "eventId")
	if err != nil {
		return nil, err
	}

	var patch calendar.EventPatch
	if summary, ok, err := stringArg(args, "summary"); err != nil {
		return nil, err
	} else if ok {
		patch.Summary = &summary
	}
	if desc, ok, err := stringArg(args, "description"); err != nil {
		return nil, err
	} else if ok {
		patch.Description = &desc
	}
	if loc, ok, err := stringArg(args, "location"); err != nil {
		return nil, err
	} else if ok {
		patch.Location = &loc
	}
	if tz, ok, err := stringArg(args, "timeZone"); err != nil {
		return nil, err
	} else if ok {
		patch.TimeZone = &tz
	}
	if start, err := optionalTimeArg(args, "start"); err != nil {
		return nil, err
	} else if start != "" {
		patch.Start = &start
	}
	if end, err := optionalTimeArg(args, "end"); err != nil {
		return nil, err
	} else if end != "" {
		patch.End = &end
	}
	if _, present := args["attendees"]; present {
		attendees, err := attendeesArg(args)
		if err != nil {
			return nil, err
		}
		patch.Attendees = &attendees
	}

	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	event, err := d.cal.UpdateEvent(ctx, eventID, patch)
	if err != nil {
		return nil, err
	}

	d.logger.Info("event updated", logging.EventID(event.ID))
	return &Result{Text: formatEvent("Successfully updated event", event), Data: event}, nil
}

func (d *Dispatcher) handleDeleteEvent(ctx context.Context, args map[string]any) (*Result, error) {
	eventID, err := requiredStringArg(args, "eventId")
	if err != nil {
		return nil, err
	}

	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	event, err := d.cal.DeleteEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	d.logger.Info("event deleted", logging.EventID(event.ID))
	return &Result{
		Text: fmt.Sprintf("Successfully deleted event: %s (ID: %s)", event.Summary, event.ID),
		Data: event,
	}, nil
}

// GetEvent serves single-event reads for the REST face. It is not part of
// the tool set; tool vocabularies reach events through list_events.
func (d *Dispatcher) GetEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	if eventID == "" {
		return nil, &ValidationError{Field: "eventId", Reason: "is required"}
	}
	if err := d.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}
	return d.cal.GetEvent(ctx, eventID)
}

// ensureAuthenticated fails the call before anything is sent upstream when
// no usable credential is held.
func (d *Dispatcher) ensureAuthenticated(ctx context.Context) error {
	_, err := d.auth.Token(ctx)
	return err
}

// stringArg reads an optional string argument. Presence with a non-string
// value is a validation error; an explicit empty string counts as present.
func stringArg(args map[string]any, key string) (string, bool, error) {
	value, present := args[key]
	if !present {
		return "", false, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", false, &ValidationError{Field: key, Reason: "must be a string"}
	}
	return s, true, nil
}

// requiredStringArg reads a string argument that must be present and
// non-empty.
func requiredStringArg(args map[string]any, key string) (string, error) {
	s, ok, err := stringArg(args, key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", &ValidationError{Field: key, Reason: "is required"}
	}
	return s, nil
}

// requiredTimeArg reads a required RFC3339 timestamp argument.
func requiredTimeArg(args map[string]any, key string) (string, error) {
	s, err := requiredStringArg(args, key)
	if err != nil {
		return "", err
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return "", &ValidationError{Field: key, Reason: fmt.Sprintf("must be RFC3339: %v", err)}
	}
	return s, nil
}

// optionalTimeArg reads an optional RFC3339 timestamp argument. Absent or
// empty yields "".
func optionalTimeArg(args map[string]any, key string) (string, error) {
	s, ok, err := stringArg(args, key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", nil
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return "", &ValidationError{Field: key, Reason: fmt.Sprintf("must be RFC3339: %v", err)}
	}
	return s, nil
}

// intArg reads an optional integer argument. JSON decoding hands numbers
// over as float64; strings carrying digits are accepted too since
// tool-calling models frequently quote numbers.
func intArg(args map[string]any, key string, defaultValue int) (int, error) {
	value, present := args[key]
	if !present {
		return defaultValue, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, &ValidationError{Field: key, Reason: "must be an integer"}
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		if v == "" {
			return defaultValue, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &ValidationError{Field: key, Reason: "must be an integer"}
		}
		return n, nil
	default:
		return 0, &ValidationError{Field: key, Reason: "must be an integer"}
	}
}

// attendeesArg reads the attendees argument, accepting either a
// comma-separated string or a JSON array of strings.
func attendeesArg(args map[string]any) ([]string, error) {
	value, present := args["attendees"]
	if !present {
		return nil, nil
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		parts := strings.Split(v, ",")
		emails := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				emails = append(emails, trimmed)
			}
		}
		return emails, nil
	case []any:
		emails := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Field: "attendees", Reason: "must be a list of email strings"}
			}
			emails = append(emails, strings.TrimSpace(s))
		}
		return emails, nil
	default:
		return nil, &ValidationError{Field: "attendees", Reason: "must be a string or list of strings"}
	}
}
