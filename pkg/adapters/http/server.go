// Package http exposes the presentation core over HTTP for inspection and remote
// driving: state snapshots, transition requests, navigation hooks and an SSE
// stream of committed transitions.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
)

// App is the part of the presentation core the server drives.
type App interface {
	Snapshot() domain.Snapshot
	Transition(target domain.Phase) error
	TryOpenMenu() error
	TryCloseMenu() error
	HandleKey(key string) bool
	HandleLogoClick() bool
	OnBeforeRouteChange(target string) error
	OnAfterRouteChange() error
	OnPageReady() error
	Enforce() bool
}

// Dispatcher runs fn on the goroutine that owns the App.
type Dispatcher func(ctx context.Context, fn func() error) error

func direct(_ context.Context, fn func() error) error { return fn() }

// Server handles the HTTP API.
type Server struct {
	App      App
	Dispatch Dispatcher
	Streams  *StreamManager
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithDispatcher serializes every App call through d (e.g. loop.Loop.Do).
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) {
		s.Dispatch = d
	}
}

// WithStreams shares a StreamManager, typically one fed by App.Subscribe.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewServer creates a Server with direct dispatch and a private StreamManager.
func NewServer(app App, opts ...Option) *Server {
	s := &Server{
		App:      app,
		Dispatch: direct,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(WithStreamLogger(s.Logger))
	}
	return s
}

// NewHandler creates the HTTP handler for app.
func NewHandler(app App, opts ...Option) http.Handler {
	return NewServer(app, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/state", s.GetState)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/transition", s.PostTransition)
	r.Post("/menu/open", s.PostOpenMenu)
	r.Post("/menu/close", s.PostCloseMenu)
	r.Post("/keys/{key}", s.PostKey)
	r.Post("/click", s.PostClick)
	r.Post("/routes/before", s.PostBeforeRoute)
	r.Post("/routes/after", s.PostAfterRoute)
	r.Post("/routes/ready", s.PostPageReady)
	r.Post("/enforce", s.PostEnforce)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// Result is the response of every command endpoint.
type Result struct {
	Accepted bool            `json:"accepted"`
	Error    string          `json:"error,omitempty"`
	State    domain.Snapshot `json:"state"`
}

type transitionRequest struct {
	Phase string `json:"phase"`
}

type routeRequest struct {
	Route string `json:"route"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	var snap domain.Snapshot
	err := s.Dispatch(r.Context(), func() error {
		snap = s.App.Snapshot()
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("State error: %v", err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// PostTransition handles POST /transition.
func (s *Server) PostTransition(w http.ResponseWriter, r *http.Request) {
	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("transition: invalid request body", "error", err)
		return
	}
	phase, err := domain.ParsePhase(body.Phase)
	if err != nil || phase == domain.AnyPhase {
		http.Error(w, fmt.Sprintf("Invalid phase %q", body.Phase), http.StatusBadRequest)
		return
	}
	s.command(w, r, func() error { return s.App.Transition(phase) })
}

// PostOpenMenu handles POST /menu/open.
func (s *Server) PostOpenMenu(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.App.TryOpenMenu)
}

// PostCloseMenu handles POST /menu/close.
func (s *Server) PostCloseMenu(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.App.TryCloseMenu)
}

// PostKey handles POST /keys/{key}.
func (s *Server) PostKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.command(w, r, func() error { return accepted(s.App.HandleKey(key)) })
}

// PostClick handles POST /click.
func (s *Server) PostClick(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func() error { return accepted(s.App.HandleLogoClick()) })
}

// PostBeforeRoute handles POST /routes/before.
func (s *Server) PostBeforeRoute(w http.ResponseWriter, r *http.Request) {
	var body routeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Route == "" {
		http.Error(w, "Invalid request body: route is required", http.StatusBadRequest)
		return
	}
	s.command(w, r, func() error { return s.App.OnBeforeRouteChange(body.Route) })
}

// PostAfterRoute handles POST /routes/after.
func (s *Server) PostAfterRoute(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.App.OnAfterRouteChange)
}

// PostPageReady handles POST /routes/ready.
func (s *Server) PostPageReady(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.App.OnPageReady)
}

// PostEnforce handles POST /enforce.
func (s *Server) PostEnforce(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func() error { return accepted(s.App.Enforce()) })
}

// errNotAccepted marks a boolean command that was ignored.
var errNotAccepted = errors.New("ignored")

func accepted(ok bool) error {
	if ok {
		return nil
	}
	return errNotAccepted
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func() error) {
	var (
		res    Result
		cmdErr error
	)
	err := s.Dispatch(r.Context(), func() error {
		cmdErr = fn()
		res.State = s.App.Snapshot()
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Dispatch error: %v", err), http.StatusServiceUnavailable)
		s.Logger.Error("dispatch failed", "path", r.URL.Path, "error", err)
		return
	}

	res.Accepted = cmdErr == nil
	if cmdErr != nil {
		res.Error = cmdErr.Error()
	}
	status := statusFor(cmdErr)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("command failed", "path", r.URL.Path, "error", cmdErr)
	}
	writeJSON(w, status, res)
}

// statusFor maps core errors onto HTTP statuses. A failed entry action is
// reported with 200: the transition itself was committed.
func statusFor(err error) int {
	var entryErr *domain.EntryActionError
	switch {
	case err == nil, errors.Is(err, errNotAccepted):
		return http.StatusOK
	case errors.As(err, &entryErr):
		return http.StatusOK
	case errors.Is(err, domain.ErrInvalidPhase):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTransitionDebounced):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInteractionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
