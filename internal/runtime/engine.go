package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/internal/projector"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/registry"
)

// Default timings of the state machine.
const (
	DefaultDebounce  = 300 * time.Millisecond
	DefaultBootDelay = time.Second
)

// EntryAction runs synchronously right after a phase is committed.
type EntryAction func(m *Machine, from domain.Phase) error

// Machine is the authoritative finite-state machine of the intro.
//
// It is not safe for concurrent use: every method, and every callback scheduled on
// its clock, must run on the same goroutine.
type Machine struct {
	clock       clock.Clock
	registry    *registry.Registry
	projector   *projector.Projector
	coordinator *coordinator.Coordinator
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	debounce  time.Duration
	bootDelay time.Duration
	homeRoute string
	entry     map[domain.Phase]EntryAction

	phase       domain.Phase
	previous    domain.Phase
	hasPrevious bool
	last        domain.TransitionRecord
	hasLast     bool
	epoch       uint64
	committing  bool
	started     bool

	route                string
	pendingRoute         string
	hasPendingRoute      bool
	navigatingBackToHome bool

	lastEnforce time.Time
	hasEnforced bool

	subs []subscription
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithDebounce sets the quiet interval between committed transitions.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) {
		m.debounce = d
	}
}

// WithBootDelay sets how long the machine stays in Initializing.
func WithBootDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.bootDelay = d
	}
}

// WithHomeRoute configures the route that shows the intro (default "/").
func WithHomeRoute(route string) Option {
	return func(m *Machine) {
		m.homeRoute = route
	}
}

// WithEntryAction replaces the entry action of a phase.
func WithEntryAction(phase domain.Phase, action EntryAction) Option {
	return func(m *Machine) {
		m.entry[phase] = action
	}
}

// NewMachine creates a machine in Initializing. Call Start to arm the boot timer.
func NewMachine(clk clock.Clock, reg *registry.Registry, proj *projector.Projector, coord *coordinator.Coordinator, opts ...Option) *Machine {
	m := &Machine{
		clock:       clk,
		registry:    reg,
		projector:   proj,
		coordinator: coord,
		logger:      logging.NewNop(),
		debounce:    DefaultDebounce,
		bootDelay:   DefaultBootDelay,
		homeRoute:   domain.DefaultHomeRoute,
		entry:       defaultEntryActions(),
		phase:       domain.Initializing,
		route:       domain.DefaultHomeRoute,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase { return m.phase }

// Previous returns the phase before the last committed transition.
// ok is false only before the first commit.
func (m *Machine) Previous() (domain.Phase, bool) { return m.previous, m.hasPrevious }

// LastTransition returns the latest committed transition record.
func (m *Machine) LastTransition() (domain.TransitionRecord, bool) { return m.last, m.hasLast }

// IsTransitional reports whether an animation or navigation phase is active.
func (m *Machine) IsTransitional() bool { return m.phase.IsTransitional() }

// Route returns the active route.
func (m *Machine) Route() string { return m.route }

// OnHome reports whether the active route is the home route.
func (m *Machine) OnHome() bool { return domain.IsHomeRoute(m.route, m.homeRoute) }

// CanInteract implements the interaction permission policy: menu interaction is
// permitted iff the active route is home and no transitional phase is active.
func (m *Machine) CanInteract() bool {
	return m.OnHome() && !m.IsTransitional()
}

// NavigatingBackToHome exposes the navigation intent flag.
func (m *Machine) NavigatingBackToHome() bool { return m.navigatingBackToHome }

// Snapshot returns a diagnostic view of the machine.
func (m *Machine) Snapshot() domain.Snapshot {
	s := domain.Snapshot{
		Phase:                m.phase,
		Route:                m.route,
		NavigatingBackToHome: m.navigatingBackToHome,
		Interactive:          m.CanInteract(),
	}
	if m.hasPrevious {
		prev := m.previous
		s.Previous = &prev
	}
	if m.hasLast {
		last := m.last
		s.Last = &last
	}
	if anims := m.registry.Snapshot(); len(anims) > 0 {
		s.Animations = make(map[string]int, len(anims))
		for g, n := range anims {
			s.Animations[string(g)] = n
		}
	}
	return s
}

// Start enters Initializing on route and arms the boot timer, which commits Idle on
// the home route and Subpage elsewhere.
func (m *Machine) Start(route string) error {
	if m.started {
		return fmt.Errorf("%w: machine already started", domain.ErrIllegalTransition)
	}
	m.started = true
	m.route = route
	m.enforce(true)
	m.logger.Info("booting", "route", route, "boot_delay", m.bootDelay)

	m.clock.AfterFunc(m.bootDelay, func() {
		if m.phase != domain.Initializing {
			// A navigation already moved the machine on.
			return
		}
		target := domain.Subpage
		if m.OnHome() {
			target = domain.Idle
		}
		if err := m.Transition(target); err != nil {
			m.logger.Error("boot transition failed", "target", target, "error", err)
		}
	})
	return nil
}

// RequestTransition asks for a phase change and reports whether it was committed.
func (m *Machine) RequestTransition(target domain.Phase) bool {
	return m.Transition(target) == nil
}

// Transition asks for a phase change. Within the quiet interval after a commit
// only the first request is committed; navigation hooks and PrepareForTransition
// are the exception and commit regardless of the interval.
//
// It returns ErrInvalidPhase or ErrTransitionDebounced without mutating anything.
// An *domain.EntryActionError means the commit took effect but an entry action failed.
func (m *Machine) Transition(target domain.Phase) error {
	return m.commit(target, false)
}

func (m *Machine) commit(target domain.Phase, force bool) error {
	now := m.clock.Now()
	if !target.Valid() {
		m.reject(target, domain.RejectInvalidPhase, now)
		m.logger.Warn("rejected transition to invalid phase", "target", int(target), "phase", m.phase)
		return fmt.Errorf("%w: %d", domain.ErrInvalidPhase, int(target))
	}
	if !force && m.quietRemaining(now) > 0 {
		m.reject(target, domain.RejectDebounced, now)
		m.logger.Debug("transition debounced", "from", m.phase, "target", target)
		return domain.ErrTransitionDebounced
	}

	from := m.phase
	m.previous, m.hasPrevious = from, true
	m.phase = target
	m.last = domain.TransitionRecord{From: from, To: target, Timestamp: now}
	m.hasLast = true
	m.epoch++
	m.logger.Debug("phase committed", "from", from, "to", target, "forced", force)

	m.committing = true
	entryErr := m.runEntry(target, from)
	m.committing = false

	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(domain.TransitionEvent{Record: m.last, Forced: force})
	}
	m.broadcast(m.last)

	if entryErr != nil {
		m.logger.Error("phase entry action failed", "phase", target, "error", entryErr)
		if m.hooks.OnError != nil {
			m.hooks.OnError(entryErr)
		}
		// The commit stands; pull the DOM to what the phase implies.
		m.enforce(true)
		return entryErr
	}
	return nil
}

func (m *Machine) quietRemaining(now time.Time) time.Duration {
	if !m.hasLast {
		return 0
	}
	return m.debounce - now.Sub(m.last.Timestamp)
}

func (m *Machine) reject(target domain.Phase, reason domain.RejectReason, now time.Time) {
	if m.hooks.OnReject != nil {
		m.hooks.OnReject(domain.RejectEvent{From: m.phase, Target: target, Reason: reason, Timestamp: now})
	}
}

func (m *Machine) runEntry(phase, from domain.Phase) (err error) {
	action := m.entry[phase]
	if action == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &domain.EntryActionError{Phase: phase, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	if err := action(m, from); err != nil {
		return &domain.EntryActionError{Phase: phase, Err: err}
	}
	return nil
}

// advance commits target once the quiet interval allows it, provided no commit
// happened since the one that produced epoch. It is used for sequence-driven
// transitions, which must not be dropped by the debounce window.
func (m *Machine) advance(epoch uint64, target domain.Phase) {
	var attempt func()
	attempt = func() {
		if m.epoch != epoch {
			m.logger.Debug("dropped stale follow-up transition", "target", target, "phase", m.phase)
			return
		}
		if wait := m.quietRemaining(m.clock.Now()); wait > 0 {
			m.clock.AfterFunc(wait, attempt)
			return
		}
		if err := m.Transition(target); err != nil && !errors.Is(err, domain.ErrTransitionDebounced) {
			m.logger.Error("follow-up transition failed", "target", target, "error", err)
		}
	}
	if m.committing {
		// Completion arrived synchronously from an entry action; finish the commit first.
		m.clock.AfterFunc(0, attempt)
		return
	}
	attempt()
}

// Enforce runs a rate-limited enforcement pass for the current phase.
// It reports whether the DOM was touched.
func (m *Machine) Enforce() bool {
	return m.enforce(false)
}

func (m *Machine) enforce(force bool) bool {
	now := m.clock.Now()
	if !force && m.hasEnforced && now.Sub(m.lastEnforce) < m.debounce {
		return false
	}
	onHome := m.OnHome()
	m.projector.Enforce(m.phase, onHome)
	m.lastEnforce, m.hasEnforced = now, true
	if m.hooks.OnEnforce != nil {
		m.hooks.OnEnforce(domain.EnforceEvent{Phase: m.phase, OnHome: onHome})
	}
	return true
}
