package scenario

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/vestibule"
	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
)

// Epoch is the manual clock's start time; transcript times are relative to it.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Entry kinds of the transcript.
const (
	KindStep       = "step"
	KindTransition = "transition"
	KindReject     = "reject"
	KindSequence   = "sequence"
	KindError      = "error"
	KindExpect     = "expect"
)

// Entry is one line of the transcript.
type Entry struct {
	At     time.Duration
	Kind   string
	Detail string
}

// Failure is an unmet expectation.
type Failure struct {
	Step    int
	Message string
}

// Report is the outcome of a replay.
type Report struct {
	Name        string
	Description string
	Entries     []Entry
	Transitions []domain.TransitionRecord
	Failures    []Failure
	Final       domain.Snapshot
	Elapsed     time.Duration
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool { return len(r.Failures) == 0 }

// Option configures a replay.
type Option func(*runner)

// WithAppOptions passes extra options to the app under test.
func WithAppOptions(opts ...vestibule.Option) Option {
	return func(r *runner) {
		r.appOpts = append(r.appOpts, opts...)
	}
}

// WithSceneDurations sets the headless logo animation durations.
func WithSceneDurations(d memory.SceneDurations) Option {
	return func(r *runner) {
		r.durations = d
	}
}

// WithLogger sets the logger handed to the app.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	appOpts   []vestibule.Option
	durations memory.SceneDurations
	logger    *slog.Logger

	clock  *clock.Manual
	doc    *memory.Document
	scene  *memory.Scene
	app    *vestibule.App
	report *Report
}

// Run replays script against a fresh headless app.
func Run(script Script, opts ...Option) (*Report, error) {
	r := &runner{
		durations: memory.DefaultSceneDurations,
		logger:    logging.NewNop(),
		report:    &Report{Name: script.Name, Description: script.Description},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.clock = clock.NewManual(Epoch)
	r.doc = memory.NewDocument()
	r.scene = memory.NewScene(r.clock, memory.WithSceneDurations(r.durations))

	appOpts := []vestibule.Option{
		vestibule.WithClock(r.clock),
		vestibule.WithDOM(r.doc),
		vestibule.WithScene(r.scene),
		vestibule.WithLogger(r.logger),
		vestibule.WithLifecycleHooks(r.hooks()),
	}
	app, err := vestibule.New(append(appOpts, r.appOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build app: %w", err)
	}
	r.app = app
	if _, err := app.Subscribe(domain.AnyPhase, domain.AnyPhase, func(rec domain.TransitionRecord) {
		r.report.Transitions = append(r.report.Transitions, rec)
		r.log(KindTransition, "%s -> %s", rec.From, rec.To)
	}); err != nil {
		return nil, err
	}

	for i, step := range script.Steps {
		r.exec(i+1, step)
	}

	r.report.Final = app.Snapshot()
	r.report.Elapsed = r.clock.Now().Sub(Epoch)
	return r.report, nil
}

func (r *runner) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReject: func(e domain.RejectEvent) {
			r.log(KindReject, "%s -> %s (%s)", e.From, e.Target, e.Reason)
		},
		OnSequenceDone: func(e domain.SequenceEvent) {
			detail := fmt.Sprintf("%s done in %s", e.Name, e.Duration)
			if len(e.Skipped) > 0 {
				detail += fmt.Sprintf(", skipped %s", strings.Join(e.Skipped, ", "))
			}
			r.log(KindSequence, "%s", detail)
		},
		OnError: func(err error) {
			r.log(KindError, "%v", err)
		},
	}
}

func (r *runner) log(kind, format string, args ...any) {
	r.report.Entries = append(r.report.Entries, Entry{
		At:     r.clock.Now().Sub(Epoch),
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

func outcome(ok bool) string {
	if ok {
		return "accepted"
	}
	return "ignored"
}

func errOutcome(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func (r *runner) exec(n int, step Step) {
	app := r.app
	switch step.Action() {
	case "start":
		r.log(KindStep, "start %s: %s", step.Start, errOutcome(app.Start(step.Start)))
	case "advance":
		r.clock.Advance(step.Advance)
		r.log(KindStep, "advanced %s", step.Advance)
	case "key":
		r.log(KindStep, "key %q: %s", step.Key, outcome(app.HandleKey(step.Key)))
	case "click":
		r.log(KindStep, "logo click: %s", outcome(app.HandleLogoClick()))
	case "open_menu":
		r.log(KindStep, "open menu: %s", errOutcome(app.TryOpenMenu()))
	case "close_menu":
		r.log(KindStep, "close menu: %s", errOutcome(app.TryCloseMenu()))
	case "transition":
		phase, _ := domain.ParsePhase(step.Transition)
		r.log(KindStep, "transition to %s: %s", phase, errOutcome(app.Transition(phase)))
	case "navigate":
		r.log(KindStep, "navigate to %s: %s", step.Navigate, errOutcome(app.OnBeforeRouteChange(step.Navigate)))
	case "after_navigate":
		r.log(KindStep, "after navigate: %s", errOutcome(app.OnAfterRouteChange()))
	case "page_ready":
		r.log(KindStep, "page ready: %s", errOutcome(app.OnPageReady()))
	case "enforce":
		r.log(KindStep, "enforce: %s", outcome(app.Enforce()))
	case "remove_element":
		r.doc.Remove(domain.ElementID(step.RemoveElement))
		r.log(KindStep, "removed #%s", step.RemoveElement)
	case "hang_scene":
		r.scene.SetHang(*step.HangScene)
		r.log(KindStep, "scene hang: %t", *step.HangScene)
	case "scene_ready":
		r.scene.SetReady(*step.SceneReady)
		r.log(KindStep, "scene ready: %t", *step.SceneReady)
	case "expect":
		mismatches := r.check(*step.Expect)
		for _, m := range mismatches {
			r.report.Failures = append(r.report.Failures, Failure{Step: n, Message: m})
		}
		if len(mismatches) == 0 {
			r.log(KindExpect, "step %d: ok", n)
		} else {
			r.log(KindExpect, "step %d: %s", n, strings.Join(mismatches, "; "))
		}
	}
}

func (r *runner) check(e Expectation) []string {
	var out []string
	if e.Phase != "" {
		want, _ := domain.ParsePhase(e.Phase)
		if got := r.app.Phase(); got != want {
			out = append(out, fmt.Sprintf("phase: got %s, want %s", got, want))
		}
	}
	if e.Route != "" && r.app.Route() != e.Route {
		out = append(out, fmt.Sprintf("route: got %s, want %s", r.app.Route(), e.Route))
	}

	elements := r.doc.Snapshot()
	visibility := func(ids []string, want bool) {
		for _, id := range ids {
			st, ok := elements[domain.ElementID(id)]
			if !ok {
				out = append(out, fmt.Sprintf("#%s: missing", id))
				continue
			}
			if st.Visible() != want {
				out = append(out, fmt.Sprintf("#%s: visible=%t, want %t", id, st.Visible(), want))
			}
		}
	}
	visibility(e.Visible, true)
	visibility(e.Hidden, false)

	if e.Interactive != nil && r.app.CanInteract() != *e.Interactive {
		out = append(out, fmt.Sprintf("interactive: got %t, want %t", r.app.CanInteract(), *e.Interactive))
	}
	if e.NavigatingBackToHome != nil && r.app.NavigatingBackToHome() != *e.NavigatingBackToHome {
		out = append(out, fmt.Sprintf("navigating_back_to_home: got %t, want %t", r.app.NavigatingBackToHome(), *e.NavigatingBackToHome))
	}
	if e.Settled != nil {
		groups := r.app.Registry().Groups()
		if settled := len(groups) == 0; settled != *e.Settled {
			out = append(out, fmt.Sprintf("settled: got %t (active groups %v), want %t", settled, groups, *e.Settled))
		}
	}
	return out
}
