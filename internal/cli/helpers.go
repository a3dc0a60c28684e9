// Package cli implements the vestibule commands on top of the app, the
// scenario runner and the adapters.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/vestibule/internal/config"
	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
	stop   sync.Once
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string
	Debug      []string
	Out        io.Writer
	Err        io.Writer
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) errOut() io.Writer {
	if o.Err == nil {
		return os.Stderr
	}
	return o.Err
}

// load reads the configuration and applies the command-line overrides.
func (o Options) load() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if len(o.Debug) > 0 {
		cfg.Debug = append(cfg.Debug, o.Debug...)
	}
	return cfg, cfg.Validate()
}

// createLogger writes to w, separate from the command output.
// Enabling any debug subsystem lowers the level to Debug.
func createLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if len(cfg.Debug) > 0 {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(w, level)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReject: func(e domain.RejectEvent) {
			logger.Debug("Transition Rejected", "from", e.From, "target", e.Target, "reason", e.Reason)
		},
		OnSequenceStart: func(e domain.SequenceEvent) {
			logger.Debug("Sequence Start", "sequence", e.Name)
		},
		OnSequenceDone: func(e domain.SequenceEvent) {
			if e.Err != nil {
				logger.Debug("Sequence Done (Timeout)", "sequence", e.Name, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug("Sequence Done", "sequence", e.Name, "duration", e.Duration, "skipped", e.Skipped)
		},
		OnError: func(err error) {
			logger.Warn("Core Error", "err", err)
		},
	}
}

// rawWriter translates newlines for a terminal in raw mode.
type rawWriter struct {
	w io.Writer
}

func (r rawWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\n", "\r\n")
	if _, err := io.WriteString(r.w, s); err != nil {
		return 0, err
	}
	return len(p), nil
}
