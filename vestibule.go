package vestibule

import (
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/internal/projector"
	"github.com/aretw0/vestibule/internal/runtime"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
	"github.com/aretw0/vestibule/pkg/registry"
)

// App is the high-level entry point of the presentation core.
// It owns the registry, projector, coordinator and state machine and wires them
// together; there is no package-level state.
//
// Like the machine it wraps, App is single-threaded: call it from the goroutine
// that drives its clock (see internal/loop for real-time hosts).
type App struct {
	machine     *runtime.Machine
	coordinator *coordinator.Coordinator
	registry    *registry.Registry
	projector   *projector.Projector

	clock    clock.Clock
	dom      ports.DOM
	scene    ports.SceneBridge
	animator ports.Animator
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	toggles  *logging.Toggles

	machineOpts []runtime.Option
	coordOpts   []coordinator.Option
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithClock sets the time source. It is required.
func WithClock(c clock.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithDOM injects the document the projector and sequences act on.
// Defaults to a headless memory.Document with every known element.
func WithDOM(dom ports.DOM) Option {
	return func(a *App) {
		a.dom = dom
	}
}

// WithScene injects the 3D scene bridge. Without one, 3D steps are skipped.
func WithScene(scene ports.SceneBridge) Option {
	return func(a *App) {
		a.scene = scene
	}
}

// WithAnimator sets the tween engine for DOM properties.
// Defaults to the memory animator driven by the app clock.
func WithAnimator(animator ports.Animator) Option {
	return func(a *App) {
		a.animator = animator
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. It may be given several
// times; every hook set is invoked in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = domain.Merge(a.hooks, hooks)
	}
}

// WithDebug enables debug tracing for the named subsystems ("*" for all).
func WithDebug(subsystems ...string) Option {
	return func(a *App) {
		for _, s := range subsystems {
			a.toggles.Set(s, true)
		}
	}
}

// WithDebounce sets the quiet interval between committed transitions.
func WithDebounce(d time.Duration) Option {
	return func(a *App) {
		a.machineOpts = append(a.machineOpts, runtime.WithDebounce(d))
	}
}

// WithBootDelay sets how long the app stays in Initializing.
func WithBootDelay(d time.Duration) Option {
	return func(a *App) {
		a.machineOpts = append(a.machineOpts, runtime.WithBootDelay(d))
	}
}

// WithHomeRoute configures the route that shows the intro (default "/").
func WithHomeRoute(route string) Option {
	return func(a *App) {
		a.machineOpts = append(a.machineOpts, runtime.WithHomeRoute(route))
	}
}

// WithEntryAction replaces the entry action of a phase.
func WithEntryAction(phase domain.Phase, action runtime.EntryAction) Option {
	return func(a *App) {
		a.machineOpts = append(a.machineOpts, runtime.WithEntryAction(phase, action))
	}
}

// WithSequenceTimeout bounds how long a sequence may wait for its steps (0 disables).
func WithSequenceTimeout(d time.Duration) Option {
	return func(a *App) {
		a.coordOpts = append(a.coordOpts, coordinator.WithTimeout(d))
	}
}

// WithTimings configures the durations and offsets of the built-in sequences.
func WithTimings(t coordinator.Timings) Option {
	return func(a *App) {
		a.coordOpts = append(a.coordOpts, coordinator.WithTimings(t))
	}
}

// WithSequence registers a custom sequence, replacing a built-in one of the same name.
func WithSequence(seq coordinator.Sequence) Option {
	return func(a *App) {
		a.coordOpts = append(a.coordOpts, coordinator.WithSequence(seq))
	}
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// New builds an App in Initializing. Call Start to boot it.
func New(opts ...Option) (*App, error) {
	a := &App{
		toggles: logging.NewToggles(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.clock == nil {
		return nil, errors.New("vestibule: a clock is required (see WithClock)")
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.dom == nil {
		a.dom = memory.NewDocument()
	}
	if a.animator == nil {
		a.animator = memory.NewAnimator(a.clock)
	}

	a.registry = registry.NewRegistry(
		registry.WithLogger(a.toggles.Logger(a.logger, logging.SubsystemRegistry)),
	)
	a.projector = projector.New(a.dom,
		projector.WithLogger(a.toggles.Logger(a.logger, logging.SubsystemProjector)),
	)

	coordOpts := []coordinator.Option{
		coordinator.WithAnimator(a.animator),
		coordinator.WithLifecycleHooks(a.hooks),
		coordinator.WithLogger(a.toggles.Logger(a.logger, logging.SubsystemCoordinator)),
	}
	if a.scene != nil {
		if s, ok := a.scene.(loggerSetter); ok {
			s.SetLogger(a.toggles.Logger(a.logger, logging.SubsystemScene))
		}
		coordOpts = append(coordOpts, coordinator.WithScene(a.scene))
	}
	a.coordinator = coordinator.New(a.clock, a.registry, a.dom, append(coordOpts, a.coordOpts...)...)

	machineOpts := []runtime.Option{
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.toggles.Logger(a.logger, logging.SubsystemMachine)),
	}
	a.machine = runtime.NewMachine(a.clock, a.registry, a.projector, a.coordinator, append(machineOpts, a.machineOpts...)...)

	return a, nil
}

// Start boots the app on route.
func (a *App) Start(route string) error { return a.machine.Start(route) }

// Phase returns the current phase.
func (a *App) Phase() domain.Phase { return a.machine.Phase() }

// Previous returns the phase before the last committed transition.
func (a *App) Previous() (domain.Phase, bool) { return a.machine.Previous() }

// LastTransition returns the latest committed transition record.
func (a *App) LastTransition() (domain.TransitionRecord, bool) { return a.machine.LastTransition() }

// IsTransitional reports whether an animation or navigation phase is active.
func (a *App) IsTransitional() bool { return a.machine.IsTransitional() }

// CanInteract reports whether menu interaction is permitted.
func (a *App) CanInteract() bool { return a.machine.CanInteract() }

// Route returns the active route.
func (a *App) Route() string { return a.machine.Route() }

// NavigatingBackToHome exposes the navigation intent flag.
func (a *App) NavigatingBackToHome() bool { return a.machine.NavigatingBackToHome() }

// Snapshot returns a diagnostic view of the app.
func (a *App) Snapshot() domain.Snapshot { return a.machine.Snapshot() }

// Transition asks for a phase change. See runtime.Machine.Transition for the errors.
func (a *App) Transition(target domain.Phase) error { return a.machine.Transition(target) }

// RequestTransition asks for a phase change and reports whether it was committed.
func (a *App) RequestTransition(target domain.Phase) bool {
	return a.machine.RequestTransition(target)
}

// OpenMenu opens the menu from Idle.
func (a *App) OpenMenu() bool { return a.machine.OpenMenu() }

// TryOpenMenu is OpenMenu with the rejection reason.
func (a *App) TryOpenMenu() error { return a.machine.TryOpenMenu() }

// CloseMenu closes the menu from MenuOpen.
func (a *App) CloseMenu() bool { return a.machine.CloseMenu() }

// TryCloseMenu is CloseMenu with the rejection reason.
func (a *App) TryCloseMenu() error { return a.machine.TryCloseMenu() }

// HandleKey translates a key press (Space, Enter, Escape).
func (a *App) HandleKey(key string) bool { return a.machine.HandleKey(key) }

// HandleLogoClick toggles the menu.
func (a *App) HandleLogoClick() bool { return a.machine.HandleLogoClick() }

// PrepareForTransition starts a navigation away from (or back to) the home route.
func (a *App) PrepareForTransition(toHome bool) error {
	return a.machine.PrepareForTransition(toHome)
}

// OnBeforeRouteChange must be called when the router starts a navigation.
func (a *App) OnBeforeRouteChange(target string) error {
	return a.machine.OnBeforeRouteChange(target)
}

// OnAfterRouteChange must be called once the router has switched routes.
func (a *App) OnAfterRouteChange() error { return a.machine.OnAfterRouteChange() }

// OnPageReady must be called once the new page finished rendering.
func (a *App) OnPageReady() error { return a.machine.OnPageReady() }

// Enforce runs a rate-limited enforcement pass and reports whether it ran.
func (a *App) Enforce() bool { return a.machine.Enforce() }

// Subscribe registers a transition callback; see runtime.Machine.Subscribe.
func (a *App) Subscribe(from, to domain.Phase, callback func(domain.TransitionRecord)) (string, error) {
	return a.machine.Subscribe(from, to, callback)
}

// Unsubscribe removes a subscription.
func (a *App) Unsubscribe(id string) bool { return a.machine.Unsubscribe(id) }

// Registry exposes the animation registry for diagnostics.
func (a *App) Registry() *registry.Registry { return a.registry }

// Clock returns the app time source.
func (a *App) Clock() clock.Clock { return a.clock }

// DOM returns the document the app projects onto.
func (a *App) DOM() ports.DOM { return a.dom }

// SetDebug toggles debug tracing for a subsystem at runtime ("*" for all).
func (a *App) SetDebug(subsystem string, on bool) { a.toggles.Set(subsystem, on) }

// DebugSubsystems lists the subsystems with debug tracing enabled.
func (a *App) DebugSubsystems() []string { return a.toggles.List() }

// SubsystemLogger returns a logger gated by the debug toggle of subsystem.
func (a *App) SubsystemLogger(subsystem string) *slog.Logger {
	return a.toggles.Logger(a.logger, subsystem)
}
