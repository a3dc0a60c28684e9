package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/vestibule"
	"github.com/aretw0/vestibule/internal/loop"
	vhttp "github.com/aretw0/vestibule/pkg/adapters/http"
	vmcp "github.com/aretw0/vestibule/pkg/adapters/mcp"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/vestibule/pkg/adapters/redis"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// MCP transports accepted by Serve.
const (
	MCPHTTP  = "http"
	MCPStdio = "stdio"
)

// ErrUnknownTransport is returned for an unsupported MCP transport.
var ErrUnknownTransport = errors.New("unknown MCP transport")

// ServeOptions configures Serve.
type ServeOptions struct {
	Options
	// Addr overrides the configured listen address.
	Addr string
	// MCP additionally exposes the app as MCP tools: "http" mounts them on
	// /mcp, "stdio" serves them on Stdin/Stdout. Empty disables it.
	MCP string
}

// Serve runs a headless app on a real-time loop behind the HTTP API until
// SIGINT or SIGTERM.
func Serve(opts ServeOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	if opts.MCP != "" && opts.MCP != MCPHTTP && opts.MCP != MCPStdio {
		return fmt.Errorf("%w: %q", ErrUnknownTransport, opts.MCP)
	}
	logger := createLogger(cfg, opts.errOut())
	// Stdout belongs to the protocol when MCP runs over stdio.
	msgOut := opts.out()
	if opts.MCP == MCPStdio {
		msgOut = opts.errOut()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	lp := loop.New(loop.WithLogger(logger))
	doc := memory.NewDocument()
	scene := memory.NewScene(lp, memory.WithSceneDurations(cfg.Scene))

	appOpts := append(cfg.AppOptions(),
		vestibule.WithClock(lp),
		vestibule.WithDOM(doc),
		vestibule.WithScene(scene),
		vestibule.WithLogger(logger),
		vestibule.WithLifecycleHooks(debugHooks(logger)),
	)

	var (
		collector      *metrics.Collector
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector, collectors.NewGoCollector())
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		appOpts = append(appOpts, vestibule.WithLifecycleHooks(collector.Hooks()))
	}

	app, err := vestibule.New(appOpts...)
	if err != nil {
		return err
	}
	if collector != nil {
		collector.WatchRegistry(app.Registry())
	}

	streams := vhttp.NewStreamManager(vhttp.WithStreamLogger(logger))
	if _, err := app.Subscribe(domain.AnyPhase, domain.AnyPhase, streams.Publish); err != nil {
		return err
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()
		if err := client.Ping(sigCtx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		recorder := redisAdapter.NewRecorder(client,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithChannel(cfg.Redis.Channel),
			redisAdapter.WithTTL(cfg.Redis.TTL),
			redisAdapter.WithLogger(logger),
		)
		go recorder.Start(sigCtx)
		if _, err := app.Subscribe(domain.AnyPhase, domain.AnyPhase, recorder.Record); err != nil {
			return err
		}
		logger.Info("recording transitions", "redis", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	go func() {
		if err := lp.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("loop stopped", "err", err)
		}
	}()
	if err := lp.Do(sigCtx, func() error { return app.Start(cfg.StartRoute) }); err != nil {
		return fmt.Errorf("failed to start app: %w", err)
	}

	srvOpts := []vhttp.Option{
		vhttp.WithDispatcher(lp.Do),
		vhttp.WithStreams(streams),
		vhttp.WithLogger(logger),
	}
	if metricsHandler != nil {
		srvOpts = append(srvOpts, vhttp.WithMetrics(metricsHandler))
	}
	var handler http.Handler = vhttp.NewHandler(app, srvOpts...)

	stdioDone := make(chan error, 1)
	if opts.MCP != "" {
		tools := vmcp.NewServer(app,
			vmcp.WithDispatcher(lp.Do),
			vmcp.WithLogger(logger),
			vmcp.WithVersion(vestibule.Version),
		)
		switch opts.MCP {
		case MCPHTTP:
			mux := http.NewServeMux()
			mux.Handle("/mcp", tools.Handler())
			mux.Handle("/", handler)
			handler = mux
			logger.Info("mcp tools mounted", "path", "/mcp")
		case MCPStdio:
			go func() {
				stdioDone <- tools.ServeStdio()
			}()
			logger.Info("mcp tools serving on stdio")
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(msgOut, "Vestibule listening on %s (start route %s)", srv.Addr, cfg.StartRoute)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case err := <-stdioDone:
		if err != nil {
			logger.Error("mcp stdio stopped", "err", err)
		}
		printSystemMessage(msgOut, "Shutting down (mcp input closed)")
		return shutdown(srv, logger, msgOut)

	case <-sigCtx.Done():
		printSystemMessage(msgOut, "Shutting down (signal: %v)", sigCtx.Signal())
		return shutdown(srv, logger, msgOut)
	}
}

func shutdown(srv *http.Server, logger *slog.Logger, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Event streams stay open until the client leaves; cut them after the deadline.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		if err := srv.Close(); err != nil {
			return fmt.Errorf("failed to close server: %w", err)
		}
	}
	printSystemMessage(out, "Vestibule stopped")
	return nil
}
