package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/calbridge/calbridge/internal/auth"
	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/service"
)

// HTTP server timeouts.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
)

// HTTPServer is the REST and tool-calling face. Calendar endpoints are thin
// wrappers over the dispatcher, so the HTTP surface cannot drift from the
// tool surface.
type HTTPServer struct {
	sc      *ServerContext
	health  *HealthChecker
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	httpServer *http.Server
}

// NewHTTPServer creates an HTTP server over the given server context.
// metrics may be nil.
func NewHTTPServer(sc *ServerContext, health *HealthChecker, metrics *instrumentation.Metrics) *HTTPServer {
	return &HTTPServer{
		sc:      sc,
		health:  health,
		metrics: metrics,
		logger:  sc.Logger().With(logging.Service("http")),
	}
}

// Router builds the route tree. Exposed separately from Start for tests.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.recordRequest)

	r.Method(http.MethodGet, "/healthz", s.health.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", s.health.ReadinessHandler())

	r.Route("/auth", func(r chi.Router) {
		r.Get("/url", s.handleAuthURL)
		r.Get("/callback", s.handleAuthCallback)
		r.Get("/status", s.handleAuthStatus)
	})

	r.Route("/calendar/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Post("/", s.handleCreateEvent)
		r.Get("/{eventID}", s.handleGetEvent)
		r.Put("/{eventID}", s.handleUpdateEvent)
		r.Patch("/{eventID}", s.handleUpdateEvent)
		r.Delete("/{eventID}", s.handleDeleteEvent)
	})

	r.Route("/tools", func(r chi.Router) {
		r.Get("/list", s.handleToolsList)
		r.Post("/call", s.handleToolsCall)
	})

	return r
}

// Start runs the server until Shutdown. Blocking.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.sc.Settings().Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting http server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// recordRequest records one metric sample per request using the chi route
// pattern, keeping path cardinality bounded.
func (s *HTTPServer) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, ww.Status(), time.Since(start))
	})
}

func (s *HTTPServer) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, service.ToolRequest{Name: service.ToolGetAuthURL})
}

func (s *HTTPServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, service.ToolRequest{Name: service.ToolGetAuthStatus})
}

// handleAuthCallback is the browser-facing leg of the OAuth flow: Google
// redirects here with the authorization code.
func (s *HTTPServer) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, r, &service.ValidationError{Field: "code", Reason: "is required"})
		return
	}

	if err := s.sc.Auth().Exchange(r.Context(), code); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>calbridge</title></head>
<body>
<h1>Authorization complete</h1>
<p>Calendar access has been granted. You can close this window.</p>
</body>
</html>
`)
}

func (s *HTTPServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	args := map[string]any{}
	if v := q.Get("timeMin"); v != "" {
		args["timeMin"] = v
	}
	if v := q.Get("timeMax"); v != "" {
		args["timeMax"] = v
	}
	if v := q.Get("maxResults"); v != "" {
		args["maxResults"] = v
	}

	s.dispatch(w, r, service.ToolRequest{Name: service.ToolListEvents, Arguments: args})
}

func (s *HTTPServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.dispatchStatus(w, r, service.ToolRequest{Name: service.ToolCreateEvent, Arguments: args}, http.StatusCreated)
}

func (s *HTTPServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.sc.Dispatcher().GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

func (s *HTTPServer) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	args["eventId"] = chi.URLParam(r, "eventID")

	s.dispatch(w, r, service.ToolRequest{Name: service.ToolUpdateEvent, Arguments: args})
}

func (s *HTTPServer) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{"eventId": chi.URLParam(r, "eventID")}
	s.dispatch(w, r, service.ToolRequest{Name: service.ToolDeleteEvent, Arguments: args})
}

func (s *HTTPServer) handleToolsList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": service.Catalog()})
}

// toolCallRequest is the body of POST /tools/call, mirroring the OpenAI
// function-calling shape.
type toolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// toolCallResponse carries both renderings of the result.
type toolCallResponse struct {
	Text string `json:"text"`
	Data any    `json:"data,omitempty"`
}

func (s *HTTPServer) handleToolsCall(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &service.ValidationError{Field: "body", Reason: "must be a JSON object"})
		return
	}

	res, err := s.sc.Dispatcher().Dispatch(r.Context(), service.ToolRequest{
		Name:      req.Name,
		Arguments: req.Arguments,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toolCallResponse{Text: res.Text, Data: res.Data})
}

// dispatch runs a tool request and writes its structured result.
func (s *HTTPServer) dispatch(w http.ResponseWriter, r *http.Request, req service.ToolRequest) {
	s.dispatchStatus(w, r, req, http.StatusOK)
}

func (s *HTTPServer) dispatchStatus(w http.ResponseWriter, r *http.Request, req service.ToolRequest, status int) {
	res, err := s.sc.Dispatcher().Dispatch(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, res.Data)
}

// decodeArgs decodes a JSON request body into a tool argument object.
func decodeArgs(r *http.Request) (map[string]any, error) {
	args := map[string]any{}
	if r.Body == nil {
		return args, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		return nil, &service.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	return args, nil
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", logging.Err(err))
	}
}

// writeError maps an error to its HTTP status and a {"error": ...} body.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Err(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// statusForError translates the service error taxonomy into HTTP statuses.
func statusForError(err error) int {
	var validationErr *service.ValidationError
	var unknownToolErr *service.UnknownToolError

	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, calendar.ErrEventNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr), errors.As(err, &unknownToolErr), errors.Is(err, auth.ErrExchange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
