package logging

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Subsystem names with an individual debug toggle.
const (
	SubsystemMachine     = "machine"
	SubsystemCoordinator = "coordinator"
	SubsystemProjector   = "projector"
	SubsystemRegistry    = "registry"
	SubsystemScene       = "scene"
)

// Toggles holds the per-subsystem debug flags.
// A toggle only gates Debug records; it never changes behavior.
type Toggles struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewToggles creates toggles with the given subsystems enabled.
func NewToggles(enabled ...string) *Toggles {
	t := &Toggles{flags: make(map[string]bool)}
	for _, s := range enabled {
		t.flags[s] = true
	}
	return t
}

// Set turns tracing for a subsystem on or off. "*" applies to every subsystem.
func (t *Toggles) Set(subsystem string, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags[subsystem] = on
}

// Enabled reports whether debug tracing is on for a subsystem.
func (t *Toggles) Enabled(subsystem string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if on, ok := t.flags[subsystem]; ok {
		return on
	}
	return t.flags["*"]
}

// List returns the enabled subsystems, sorted.
func (t *Toggles) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for s, on := range t.flags {
		if on {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Logger derives a subsystem logger from base. Debug records pass only while the
// subsystem toggle is on; other levels follow the base handler.
func (t *Toggles) Logger(base *slog.Logger, subsystem string) *slog.Logger {
	if base == nil {
		base = NewNop()
	}
	h := &toggleHandler{next: base.Handler(), toggles: t, subsystem: subsystem}
	return slog.New(h).With("subsystem", subsystem)
}

type toggleHandler struct {
	next      slog.Handler
	toggles   *Toggles
	subsystem string
}

func (h *toggleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level <= slog.LevelDebug {
		return h.toggles.Enabled(h.subsystem)
	}
	return h.next.Enabled(ctx, level)
}

func (h *toggleHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *toggleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &toggleHandler{next: h.next.WithAttrs(attrs), toggles: h.toggles, subsystem: h.subsystem}
}

func (h *toggleHandler) WithGroup(name string) slog.Handler {
	return &toggleHandler{next: h.next.WithGroup(name), toggles: h.toggles, subsystem: h.subsystem}
}
