package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/calbridge/calbridge/internal/instrumentation"
)

// fakeCalendarAPI is an in-memory stand-in for the Google Calendar v3
// events surface, just enough for the client's five operations.
type fakeCalendarAPI struct {
	t      *testing.T
	events map[string]*calendar.Event
	nextID int

	lastListQuery map[string]string
}

func newFakeCalendarAPI(t *testing.T) *fakeCalendarAPI {
	return &fakeCalendarAPI{t: t, events: map[string]*calendar.Event{}, nextID: 1}
}

func (f *fakeCalendarAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.lastListQuery = map[string]string{
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"maxResults":   q.Get("maxResults"),
		}
		items := make([]*calendar.Event, 0, len(f.events))
		for _, ev := range f.events {
			items = append(items, ev)
		}
		writeJSON(w, &calendar.Events{Items: items})
	})
	mux.HandleFunc("POST /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		var ev calendar.Event
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&ev))
		ev.Id = fmt.Sprintf("ev-%d", f.nextID)
		f.nextID++
		ev.HtmlLink = "https://calendar.google.com/event?eid=" + ev.Id
		ev.Status = "confirmed"
		f.events[ev.Id] = &ev
		writeJSON(w, &ev)
	})
	mux.HandleFunc("GET /calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		ev, ok := f.events[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, ev)
	})
	mux.HandleFunc("PUT /calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := f.events[id]; !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		var ev calendar.Event
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&ev))
		ev.Id = id
		f.events[id] = &ev
		writeJSON(w, &ev)
	})
	mux.HandleFunc("DELETE /calendars/primary/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := f.events[id]; !ok {
			http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeCalendarAPI) {
	t.Helper()
	fake := newFakeCalendarAPI(t)
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Options{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL + "/",
		TimeZone:   "America/Sao_Paulo",
	})
	require.NoError(t, err)
	return client, fake
}

func TestNewClient_RequiresTokenSource(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.Error(t, err)
}

func TestListEvents_QueryShape(t *testing.T) {
	client, fake := newTestClient(t)

	events, err := client.ListEvents(context.Background(), ListOptions{
		TimeMin:    "2024-01-01T00:00:00Z",
		TimeMax:    "2024-01-31T23:59:59Z",
		MaxResults: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, events)

	// Recurring instances expanded, chronological order requested.
	assert.Equal(t, "true", fake.lastListQuery["singleEvents"])
	assert.Equal(t, "startTime", fake.lastListQuery["orderBy"])
	assert.Equal(t, "2024-01-01T00:00:00Z", fake.lastListQuery["timeMin"])
	assert.Equal(t, "2024-01-31T23:59:59Z", fake.lastListQuery["timeMax"])
	assert.Equal(t, "10", fake.lastListQuery["maxResults"])
}

func TestCreateEvent_RoundTrip(t *testing.T) {
	client, _ := newTestClient(t)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary: "S",
		Start:   "2024-01-01T10:00:00Z",
		End:     "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "S", created.Summary)
	assert.NotEmpty(t, created.HTMLLink)
	// No optional fields were supplied; they come back empty, not erroring.
	assert.Empty(t, created.Description)
	assert.Empty(t, created.Location)
	assert.Empty(t, created.Attendees)

	events, err := client.ListEvents(context.Background(), ListOptions{TimeMin: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "S", events[0].Summary)
	assert.Equal(t, "2024-01-01T10:00:00Z", events[0].Start)
	assert.Equal(t, "2024-01-01T11:00:00Z", events[0].End)
}

func TestCreateEvent_DefaultTimeZoneApplied(t *testing.T) {
	client, fake := newTestClient(t)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary: "S",
		Start:   "2024-01-01T10:00:00Z",
		End:     "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)

	stored := fake.events[created.ID]
	assert.Equal(t, "America/Sao_Paulo", stored.Start.TimeZone)
	assert.Equal(t, "America/Sao_Paulo", stored.End.TimeZone)
}

func TestUpdateEvent_MergesOmittedFields(t *testing.T) {
	client, fake := newTestClient(t)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary:     "Original",
		Description: "Keep me",
		Location:    "Room 4",
		Start:       "2024-01-01T10:00:00Z",
		End:         "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)

	updated, err := client.UpdateEvent(context.Background(), created.ID, EventPatch{
		Summary: strPtr("Renamed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Summary)
	assert.Equal(t, "Keep me", updated.Description)
	assert.Equal(t, "Room 4", updated.Location)
	assert.Equal(t, "2024-01-01T10:00:00Z", updated.Start)
	assert.Equal(t, "2024-01-01T11:00:00Z", updated.End)

	stored := fake.events[created.ID]
	assert.Equal(t, "Renamed", stored.Summary)
	assert.Equal(t, "Keep me", stored.Description)
}

func TestUpdateEvent_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.UpdateEvent(context.Background(), "missing", EventPatch{Summary: strPtr("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteEvent_ReportsDeletedSummary(t *testing.T) {
	client, fake := newTestClient(t)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary: "Doomed",
		Start:   "2024-01-01T10:00:00Z",
		End:     "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)

	deleted, err := client.DeleteEvent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doomed", deleted.Summary)
	assert.Empty(t, fake.events)
}

func TestDeleteEvent_NotIdempotent(t *testing.T) {
	client, _ := newTestClient(t)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary: "Once",
		Start:   "2024-01-01T10:00:00Z",
		End:     "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)

	_, err = client.DeleteEvent(context.Background(), created.ID)
	require.NoError(t, err)

	// Deleting again reports not-found, not success.
	_, err = client.DeleteEvent(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetEvent_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

type operationKey struct {
	operation string
	status    string
}

// operationCounts extracts the per-operation counter values from a collected
// metric snapshot.
func operationCounts(t *testing.T, rm metricdata.ResourceMetrics) map[operationKey]int64 {
	t.Helper()
	out := map[operationKey]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "google_api_operations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				out[operationKey{op.AsString(), status.AsString()}] = dp.Value
			}
		}
	}
	return out
}

func TestClient_RecordsAPIOperations(t *testing.T) {
	client, _ := newTestClient(t)

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter)
	require.NoError(t, err)
	client.SetMetrics(metrics)

	_, err = client.ListEvents(context.Background(), ListOptions{TimeMin: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)

	created, err := client.CreateEvent(context.Background(), EventInput{
		Summary: "S",
		Start:   "2024-01-01T10:00:00Z",
		End:     "2024-01-01T11:00:00Z",
	})
	require.NoError(t, err)

	_, err = client.UpdateEvent(context.Background(), created.ID, EventPatch{Summary: strPtr("S2")})
	require.NoError(t, err)

	_, err = client.DeleteEvent(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = client.GetEvent(context.Background(), "missing")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := operationCounts(t, rm)
	assert.Equal(t, int64(1), counts[operationKey{"list", instrumentation.StatusSuccess}])
	assert.Equal(t, int64(1), counts[operationKey{"create", instrumentation.StatusSuccess}])
	assert.Equal(t, int64(1), counts[operationKey{"update", instrumentation.StatusSuccess}])
	assert.Equal(t, int64(1), counts[operationKey{"delete", instrumentation.StatusSuccess}])
	// Update and delete each fetch the event first.
	assert.Equal(t, int64(2), counts[operationKey{"get", instrumentation.StatusSuccess}])
	assert.Equal(t, int64(1), counts[operationKey{"get", instrumentation.StatusError}])
}

func TestClient_NoMetricsRecorderIsFine(t *testing.T) {
	client, _ := newTestClient(t)

	// No SetMetrics call; operations must not panic.
	_, err := client.ListEvents(context.Background(), ListOptions{TimeMin: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)
}
