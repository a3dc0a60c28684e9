// Package coordinator composes ordered animation steps into named sequences and
// joins their completions.
//
// Every sequence clears the registry groups it uses before starting and is then
// tracked as the single handle of each of those groups, so at most one logical
// animation owns a group at any time. Clearing the group later pauses the whole
// sequence and suppresses its completion callback.
package coordinator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
	"github.com/aretw0/vestibule/pkg/registry"
)

// DefaultTimeout bounds how long a sequence may wait for its steps.
const DefaultTimeout = 5 * time.Second

// Context carries per-invocation data to the steps of a sequence.
type Context struct {
	OnHome bool // the active route is the home route
	ToHome bool // page sequences: the navigation targets home
}

// Result describes a finished sequence.
type Result struct {
	Sequence string
	Skipped  []string
	Duration time.Duration
	Err      error // ErrSequenceStall when the timeout forced the join
}

// Coordinator runs sequences against the injected collaborators.
type Coordinator struct {
	clock     clock.Clock
	registry  *registry.Registry
	dom       ports.DOM
	scene     ports.SceneBridge
	animator  ports.Animator
	timings   Timings
	timeout   time.Duration
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	sequences map[string]Sequence
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithScene injects the 3D scene bridge. Without it, logo steps are skipped.
func WithScene(scene ports.SceneBridge) Option {
	return func(c *Coordinator) {
		c.scene = scene
	}
}

// WithAnimator injects the tween animator. Without it, tweens jump to their end value.
func WithAnimator(a ports.Animator) Option {
	return func(c *Coordinator) {
		c.animator = a
	}
}

// WithTimings overrides the built-in sequence timings.
func WithTimings(t Timings) Option {
	return func(c *Coordinator) {
		c.timings = t
	}
}

// WithTimeout sets the stall timeout of every sequence. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithSequence registers an additional sequence, replacing a built-in one of the same name.
func WithSequence(seq Sequence) Option {
	return func(c *Coordinator) {
		c.sequences[seq.Name] = seq
	}
}

// New creates a coordinator with the built-in sequences registered.
func New(clk clock.Clock, reg *registry.Registry, dom ports.DOM, opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:     clk,
		registry:  reg,
		dom:       dom,
		timings:   DefaultTimings,
		timeout:   DefaultTimeout,
		logger:    logging.NewNop(),
		sequences: make(map[string]Sequence),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, seq := range BuiltinSequences(c.timings) {
		if _, overridden := c.sequences[seq.Name]; !overridden {
			c.sequences[seq.Name] = seq
		}
	}
	return c
}

// Register adds or replaces a sequence.
func (c *Coordinator) Register(seq Sequence) {
	c.sequences[seq.Name] = seq
}

// Sequence returns a registered sequence by name.
func (c *Coordinator) Sequence(name string) (Sequence, bool) {
	seq, ok := c.sequences[name]
	return seq, ok
}

// Run starts a sequence. onDone is invoked exactly once, after every step has
// signalled completion or was skipped, unless the run is paused first.
// Steps start in declared order; the first one may start before Run returns.
func (c *Coordinator) Run(name string, ctx Context, onDone func(Result)) (*Run, error) {
	seq, ok := c.sequences[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSequence, name)
	}

	r := newRun(c, seq, ctx, onDone)

	// Clear-before-start: whatever owned these groups is paused in place.
	for _, g := range r.groups {
		if n := c.registry.ClearGroup(g); n > 0 {
			c.logger.Debug("preempted animation group", "group", g, "sequence", name, "active", n)
		}
		c.registry.Track(g, r)
	}

	c.logger.Debug("sequence started", "sequence", name, "steps", len(seq.Steps), "on_home", ctx.OnHome)
	if c.hooks.OnSequenceStart != nil {
		c.hooks.OnSequenceStart(domain.SequenceEvent{Name: name})
	}

	r.begin()
	return r, nil
}
