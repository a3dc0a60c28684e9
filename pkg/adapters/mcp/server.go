// Package mcp exposes the presentation core as Model Context Protocol tools so
// an agent can drive and inspect the intro: phase transitions, menu commands,
// navigation hooks and enforcement passes, plus the current state as a resource.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
)

// StateURI identifies the snapshot resource.
const StateURI = "vestibule://state"

// Navigation events accepted by the navigate tool.
const (
	EventBefore = "before"
	EventAfter  = "after"
	EventReady  = "ready"
)

// App is the part of the presentation core the tools drive.
type App interface {
	Snapshot() domain.Snapshot
	Transition(target domain.Phase) error
	TryOpenMenu() error
	TryCloseMenu() error
	HandleKey(key string) bool
	OnBeforeRouteChange(target string) error
	OnAfterRouteChange() error
	OnPageReady() error
	Enforce() bool
}

// Dispatcher runs fn on the goroutine that owns the App.
type Dispatcher func(ctx context.Context, fn func() error) error

func direct(_ context.Context, fn func() error) error { return fn() }

// CommandResult is the structured output of every command tool.
type CommandResult struct {
	Accepted bool            `json:"accepted" jsonschema_description:"Whether the command took effect"`
	Error    string          `json:"error,omitempty" jsonschema_description:"Why the command was rejected or what failed after the commit"`
	State    domain.Snapshot `json:"state" jsonschema_description:"Snapshot of the presentation core after the command"`
}

type transitionArgs struct {
	Phase string `json:"phase"`
}

type navigateArgs struct {
	Route string `json:"route"`
	Event string `json:"event"`
}

type keyArgs struct {
	Key string `json:"key"`
}

type noArgs struct{}

// Server wraps an App and exposes it as an MCP server.
type Server struct {
	app       App
	dispatch  Dispatcher
	logger    *slog.Logger
	version   string
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDispatcher serializes every App call through d (e.g. loop.Loop.Do).
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) {
		s.dispatch = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates the MCP server with its tools and resources registered.
func NewServer(app App, opts ...Option) *Server {
	s := &Server{
		app:      app,
		dispatch: direct,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("vestibule-mcp", strings.TrimSpace(s.version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves the protocol on Stdin/Stdout until the input closes.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Handler returns a streamable HTTP handler, meant to be mounted on /mcp.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

func (s *Server) registerTools() {
	phases := make([]string, 0, len(domain.Phases()))
	for _, p := range domain.Phases() {
		phases = append(phases, p.String())
	}

	s.mcpServer.AddTool(mcp.NewTool("transition",
		mcp.WithDescription("Request a phase change. Rejected inside the quiet interval after another commit."),
		mcp.WithString("phase", mcp.Required(), mcp.Enum(phases...), mcp.Description("Target phase")),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleTransition))

	s.mcpServer.AddTool(mcp.NewTool("open_menu",
		mcp.WithDescription("Open the menu. Only allowed on the home route while idle."),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleOpenMenu))

	s.mcpServer.AddTool(mcp.NewTool("close_menu",
		mcp.WithDescription("Close the menu. Only allowed while the menu is fully open."),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleCloseMenu))

	s.mcpServer.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Deliver a keyboard key (Space, Enter or Escape) to the input mapping."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key name as reported by the browser")),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleKey))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Deliver a router event: before a route change, after it, or once the new page is ready."),
		mcp.WithString("event", mcp.Enum(EventBefore, EventAfter, EventReady), mcp.DefaultString(EventBefore), mcp.Description("Router event")),
		mcp.WithString("route", mcp.Description("Target route, required for the before event")),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("enforce",
		mcp.WithDescription("Run a rate-limited enforcement pass of the layout for the current phase."),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleEnforce))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Presentation state",
		mcp.WithResourceDescription("Phase, route, interaction permission and active animation groups"),
		mcp.WithMIMEType("application/json"),
	), s.readState)
}

func (s *Server) handleTransition(ctx context.Context, _ mcp.CallToolRequest, args transitionArgs) (CommandResult, error) {
	phase, err := domain.ParsePhase(args.Phase)
	if err != nil || phase == domain.AnyPhase {
		return CommandResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidPhase, args.Phase)
	}
	return s.command(ctx, "transition", func() error { return s.app.Transition(phase) })
}

func (s *Server) handleOpenMenu(ctx context.Context, _ mcp.CallToolRequest, _ noArgs) (CommandResult, error) {
	return s.command(ctx, "open_menu", s.app.TryOpenMenu)
}

func (s *Server) handleCloseMenu(ctx context.Context, _ mcp.CallToolRequest, _ noArgs) (CommandResult, error) {
	return s.command(ctx, "close_menu", s.app.TryCloseMenu)
}

func (s *Server) handleKey(ctx context.Context, _ mcp.CallToolRequest, args keyArgs) (CommandResult, error) {
	if args.Key == "" {
		return CommandResult{}, errors.New("key is required")
	}
	return s.command(ctx, "press_key", func() error { return accepted(s.app.HandleKey(args.Key)) })
}

func (s *Server) handleNavigate(ctx context.Context, _ mcp.CallToolRequest, args navigateArgs) (CommandResult, error) {
	switch args.Event {
	case "", EventBefore:
		if args.Route == "" {
			return CommandResult{}, errors.New("route is required for the before event")
		}
		return s.command(ctx, "navigate", func() error { return s.app.OnBeforeRouteChange(args.Route) })
	case EventAfter:
		return s.command(ctx, "navigate", s.app.OnAfterRouteChange)
	case EventReady:
		return s.command(ctx, "navigate", s.app.OnPageReady)
	default:
		return CommandResult{}, fmt.Errorf("unknown navigation event %q", args.Event)
	}
}

func (s *Server) handleEnforce(ctx context.Context, _ mcp.CallToolRequest, _ noArgs) (CommandResult, error) {
	return s.command(ctx, "enforce", func() error { return accepted(s.app.Enforce()) })
}

func (s *Server) readState(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var snap domain.Snapshot
	if err := s.dispatch(ctx, func() error {
		snap = s.app.Snapshot()
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StateURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errNotAccepted marks a boolean command that was ignored.
var errNotAccepted = errors.New("ignored")

func accepted(ok bool) error {
	if ok {
		return nil
	}
	return errNotAccepted
}

// command runs fn on the App goroutine. Rejections are reported in the result;
// only a failed dispatch is a tool error.
func (s *Server) command(ctx context.Context, tool string, fn func() error) (CommandResult, error) {
	var (
		res    CommandResult
		cmdErr error
	)
	if err := s.dispatch(ctx, func() error {
		cmdErr = fn()
		res.State = s.app.Snapshot()
		return nil
	}); err != nil {
		s.logger.Error("mcp dispatch failed", "tool", tool, "error", err)
		return CommandResult{}, fmt.Errorf("dispatch: %w", err)
	}

	var entryErr *domain.EntryActionError
	res.Accepted = cmdErr == nil || errors.As(cmdErr, &entryErr)
	if cmdErr != nil {
		res.Error = cmdErr.Error()
	}
	s.logger.Debug("mcp tool called", "tool", tool, "accepted", res.Accepted, "phase", res.State.Phase)
	return res, nil
}
