package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/ports"
)

// Group is a named bucket of animation handles subject to the
// at-most-one-active-sequence rule.
type Group string

const (
	GroupMenu       Group = "menu"
	GroupLogo       Group = "logo"
	GroupDistortion Group = "distortion"
	GroupPrompt     Group = "prompt"
	GroupCover      Group = "cover"
)

// Registry tracks in-flight animation handles by group.
type Registry struct {
	mu     sync.Mutex
	groups map[Group][]ports.Handle
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for clear operations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		groups: make(map[Group][]ports.Handle),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track adds a handle to a group. Nil handles are ignored.
func (r *Registry) Track(group Group, h ports.Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group] = append(r.groups[group], h)
}

// Release removes a handle from a group without pausing it (e.g. it completed).
// It reports whether the handle was tracked.
func (r *Registry) Release(group Group, h ports.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := r.groups[group]
	for i, other := range handles {
		if other == h {
			r.groups[group] = append(handles[:i], handles[i+1:]...)
			if len(r.groups[group]) == 0 {
				delete(r.groups, group)
			}
			return true
		}
	}
	return false
}

// ClearGroup pauses every handle in the group and empties it.
// It returns the number of handles that were still active.
func (r *Registry) ClearGroup(group Group) int {
	r.mu.Lock()
	handles := r.groups[group]
	delete(r.groups, group)
	r.mu.Unlock()

	// Pause outside the lock: a paused sequence releases its own handles.
	active := 0
	for _, h := range handles {
		if h.Active() {
			active++
		}
		h.Pause()
	}
	if len(handles) > 0 {
		r.logger.Debug("cleared animation group", "group", group, "handles", len(handles), "active", active)
	}
	return active
}

// ClearAll pauses every tracked handle in every group.
func (r *Registry) ClearAll() int {
	total := 0
	for _, g := range r.Groups() {
		total += r.ClearGroup(g)
	}
	return total
}

// Active returns the number of active handles in a group.
func (r *Registry) Active(group Group) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, h := range r.groups[group] {
		if h.Active() {
			n++
		}
	}
	return n
}

// Groups returns the names of non-empty groups, sorted.
func (r *Registry) Groups() []Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Group, 0, len(r.groups))
	for g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns the active handle count per non-empty group.
func (r *Registry) Snapshot() map[Group]int {
	out := make(map[Group]int)
	for _, g := range r.Groups() {
		out[g] = r.Active(g)
	}
	return out
}
