package runtime_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/internal/projector"
	"github.com/aretw0/vestibule/internal/runtime"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	clock    *clock.Manual
	doc      *memory.Document
	scene    *memory.Scene
	registry *registry.Registry
	machine  *runtime.Machine

	transitions []domain.TransitionEvent
	rejects     []domain.RejectEvent
	errs        []error
}

func newHarness(t *testing.T, opts ...runtime.Option) *harness {
	t.Helper()
	h := &harness{
		clock:    clock.NewManual(epoch),
		doc:      memory.NewDocument(),
		registry: registry.NewRegistry(),
	}
	h.scene = memory.NewScene(h.clock)
	hooks := domain.LifecycleHooks{
		OnTransition: func(e domain.TransitionEvent) { h.transitions = append(h.transitions, e) },
		OnReject:     func(e domain.RejectEvent) { h.rejects = append(h.rejects, e) },
		OnError:      func(err error) { h.errs = append(h.errs, err) },
	}
	coord := coordinator.New(h.clock, h.registry, h.doc,
		coordinator.WithScene(h.scene),
		coordinator.WithAnimator(memory.NewAnimator(h.clock)),
		coordinator.WithLifecycleHooks(hooks),
	)
	base := []runtime.Option{runtime.WithLifecycleHooks(hooks)}
	h.machine = runtime.NewMachine(h.clock, h.registry, projector.New(h.doc), coord, append(base, opts...)...)
	return h
}

// boot starts the machine on route and waits until the quiet interval after the
// boot commit has elapsed.
func (h *harness) boot(t *testing.T, route string) {
	t.Helper()
	require.NoError(t, h.machine.Start(route))
	h.clock.Advance(runtime.DefaultBootDelay + runtime.DefaultDebounce)
}

func (h *harness) visible(id domain.ElementID) bool {
	return h.doc.Snapshot()[id].Visible()
}

func (h *harness) openMenu(t *testing.T) {
	t.Helper()
	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(memory.DefaultSceneDurations.Open)
	require.Equal(t, domain.MenuOpen, h.machine.Phase())
	h.clock.Advance(runtime.DefaultDebounce)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestMachine_BootOnHome(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.machine.Start("/"))

	assert.Equal(t, domain.Initializing, h.machine.Phase())
	assert.False(t, h.visible(domain.ElementContinuePrompt))
	assert.False(t, h.machine.OpenMenu(), "menu stays closed while initializing")

	h.clock.Advance(runtime.DefaultBootDelay)
	assert.Equal(t, domain.Idle, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementContinuePrompt))
	assert.True(t, h.visible(domain.ElementSceneContainer))
	assert.False(t, h.visible(domain.ElementMenuContainer))

	prev, ok := h.machine.Previous()
	require.True(t, ok)
	assert.Equal(t, domain.Initializing, prev)
	assert.True(t, h.machine.CanInteract())
}

func TestMachine_BootOnSubpage(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/photos")

	assert.Equal(t, domain.Subpage, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementBackToHome))
	assert.False(t, h.visible(domain.ElementSceneContainer))
	assert.False(t, h.machine.CanInteract())
	assert.ErrorIs(t, h.machine.TryOpenMenu(), domain.ErrIllegalTransition)
}

func TestMachine_StartTwice(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.machine.Start("/"))
	assert.ErrorIs(t, h.machine.Start("/"), domain.ErrIllegalTransition)
}

func TestMachine_OpenMenu(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	assert.Equal(t, domain.MenuOpening, h.machine.Phase())
	assert.True(t, h.machine.IsTransitional())
	assert.NotEmpty(t, h.machine.Snapshot().Animations)

	h.clock.Advance(memory.DefaultSceneDurations.Open)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementMenuContainer))
	assert.True(t, h.visible(domain.ElementMenuItems))
	assert.False(t, h.visible(domain.ElementContinuePrompt))
	assert.InDelta(t, 1.0, h.scene.State().Openness, 1e-9)
	assert.Empty(t, h.registry.Groups())
}

func TestMachine_OpenMenuOnlyFromIdle(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(runtime.DefaultDebounce)

	// Repeated requests while opening must not spawn another logo animation.
	assert.False(t, h.machine.OpenMenu())
	assert.ErrorIs(t, h.machine.TryOpenMenu(), domain.ErrIllegalTransition)
	assert.Equal(t, domain.MenuOpening, h.machine.Phase())
	assert.Equal(t, 1, countCalls(h.scene.Calls(), "logo-open"))
	assert.Equal(t, 1, h.registry.Active(registry.GroupLogo))

	h.clock.Advance(memory.DefaultSceneDurations.Open)
	assert.False(t, h.machine.OpenMenu())
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	assert.Equal(t, 1, countCalls(h.scene.Calls(), "logo-open"))
}

func TestMachine_CloseMenuShowsPrompt(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")
	h.openMenu(t)

	require.True(t, h.machine.CloseMenu())
	assert.Equal(t, domain.MenuClosing, h.machine.Phase())

	h.clock.Advance(memory.DefaultSceneDurations.Close)
	assert.Equal(t, domain.Idle, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementContinuePrompt))
	assert.False(t, h.visible(domain.ElementMenuContainer))
	assert.False(t, h.visible(domain.ElementMenuItems))
	assert.InDelta(t, 0.0, h.scene.State().Openness, 1e-9)
}

func TestMachine_CloseMenuRequiresMenuOpen(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	assert.ErrorIs(t, h.machine.TryCloseMenu(), domain.ErrIllegalTransition)
	require.NotEmpty(t, h.rejects)
	assert.Equal(t, domain.RejectIllegal, h.rejects[len(h.rejects)-1].Reason)
	assert.Equal(t, domain.Idle, h.machine.Phase())
}

func TestMachine_DebounceDropsSecondRequest(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	require.NoError(t, h.machine.Transition(domain.Subpage))
	before := h.machine.Snapshot()

	h.clock.Advance(runtime.DefaultDebounce / 2)
	err := h.machine.Transition(domain.Idle)
	assert.ErrorIs(t, err, domain.ErrTransitionDebounced)
	assert.False(t, h.machine.RequestTransition(domain.Idle))
	assert.Equal(t, before, h.machine.Snapshot())

	last := h.rejects[len(h.rejects)-1]
	assert.Equal(t, domain.RejectDebounced, last.Reason)
	assert.Equal(t, domain.Idle, last.Target)

	h.clock.Advance(runtime.DefaultDebounce / 2)
	assert.True(t, h.machine.RequestTransition(domain.Idle))
}

func TestMachine_InvalidPhaseIsRejected(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")
	commits := len(h.transitions)

	err := h.machine.Transition(domain.Phase(42))
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
	assert.Equal(t, domain.Idle, h.machine.Phase())
	assert.Len(t, h.transitions, commits)
	assert.Equal(t, domain.RejectInvalidPhase, h.rejects[len(h.rejects)-1].Reason)
}

func TestMachine_TransitionRecord(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	rec, ok := h.machine.LastTransition()
	require.True(t, ok)
	assert.Equal(t, domain.Initializing, rec.From)
	assert.Equal(t, domain.Idle, rec.To)
	assert.Equal(t, epoch.Add(runtime.DefaultBootDelay), rec.Timestamp)
}

func TestMachine_EnforceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")
	h.openMenu(t)

	require.True(t, h.machine.Enforce())
	first := h.doc.Snapshot()
	h.clock.Advance(runtime.DefaultDebounce)
	require.True(t, h.machine.Enforce())
	assert.Equal(t, first, h.doc.Snapshot())
}

func TestMachine_EnforceIsRateLimited(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	require.True(t, h.machine.Enforce())
	assert.False(t, h.machine.Enforce())
}

func TestMachine_EnforceRepairsDrift(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	el, ok := h.doc.Element(domain.ElementMenuContainer)
	require.True(t, ok)
	el.RemoveClass(domain.ClassHidden)
	el.AddClass(domain.ClassVisible)
	el.SetStyle(domain.StyleOpacity, "0.4")

	require.True(t, h.machine.Enforce())
	assert.False(t, h.visible(domain.ElementMenuContainer))
	_, styled := el.Style(domain.StyleOpacity)
	assert.False(t, styled)
}

func TestMachine_MenuOpensWithoutScene(t *testing.T) {
	h := newHarness(t)
	h.scene.SetReady(false)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(time.Second)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementMenuItems))
	assert.Empty(t, h.errs, "a missing 3D layer is not an error")
}

func TestMachine_StalledSequenceStillAdvances(t *testing.T) {
	h := newHarness(t)
	h.scene.SetHang(true)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(coordinator.DefaultTimeout - time.Millisecond)
	assert.Equal(t, domain.MenuOpening, h.machine.Phase())

	h.clock.Advance(time.Millisecond)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	require.NotEmpty(t, h.errs)
	assert.ErrorIs(t, h.errs[len(h.errs)-1], domain.ErrSequenceStall)
	assert.True(t, h.visible(domain.ElementMenuContainer))
}

func TestMachine_FastSequenceWaitsForQuietInterval(t *testing.T) {
	h := newHarness(t)
	fast := coordinator.Sequence{
		Name:  coordinator.SequenceMenuOpen,
		Steps: []coordinator.Step{{Name: "instant", Group: registry.GroupMenu, Run: func(s *coordinator.StepContext) error { s.Done(); return nil }}},
	}
	coord := coordinator.New(h.clock, h.registry, h.doc, coordinator.WithSequence(fast))
	h.machine = runtime.NewMachine(h.clock, h.registry, projector.New(h.doc), coord)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	assert.Equal(t, domain.MenuOpening, h.machine.Phase())

	h.clock.Advance(runtime.DefaultDebounce)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
}

func TestMachine_EntryActionErrorKeepsCommit(t *testing.T) {
	boom := errors.New("boom")
	h := newHarness(t, runtime.WithEntryAction(domain.Subpage, func(*runtime.Machine, domain.Phase) error {
		return boom
	}))
	h.boot(t, "/")

	var notified []domain.TransitionRecord
	_, err := h.machine.Subscribe(domain.AnyPhase, domain.AnyPhase, func(rec domain.TransitionRecord) {
		notified = append(notified, rec)
	})
	require.NoError(t, err)

	err = h.machine.Transition(domain.Subpage)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEntryAction)
	assert.ErrorIs(t, err, boom)

	var entryErr *domain.EntryActionError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, domain.Subpage, entryErr.Phase)

	assert.Equal(t, domain.Subpage, h.machine.Phase())
	assert.Len(t, notified, 1)
	assert.ErrorIs(t, h.errs[len(h.errs)-1], boom)
	assert.True(t, h.visible(domain.ElementBackToHome), "failed entry still enforces the layout")
}

func TestMachine_EntryActionPanicIsRecovered(t *testing.T) {
	h := newHarness(t, runtime.WithEntryAction(domain.Subpage, func(*runtime.Machine, domain.Phase) error {
		panic("unexpected")
	}))
	h.boot(t, "/")

	err := h.machine.Transition(domain.Subpage)
	assert.ErrorIs(t, err, domain.ErrEntryAction)
	assert.Equal(t, domain.Subpage, h.machine.Phase())
}

func TestMachine_HandleKey(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	assert.False(t, h.machine.HandleKey(""))
	assert.False(t, h.machine.HandleKey("x"))
	assert.Equal(t, domain.Idle, h.machine.Phase())

	assert.True(t, h.machine.HandleKey(" "))
	h.clock.Advance(memory.DefaultSceneDurations.Open + runtime.DefaultDebounce)
	require.Equal(t, domain.MenuOpen, h.machine.Phase())

	assert.True(t, h.machine.HandleKey("Escape"))
	assert.Equal(t, domain.MenuClosing, h.machine.Phase())
	h.clock.Advance(memory.DefaultSceneDurations.Close + runtime.DefaultDebounce)

	assert.True(t, h.machine.HandleKey("Enter"))
	assert.Equal(t, domain.MenuOpening, h.machine.Phase())
}

func TestMachine_HandleLogoClickToggles(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	assert.True(t, h.machine.HandleLogoClick())
	assert.False(t, h.machine.HandleLogoClick(), "ignored while opening")
	h.clock.Advance(memory.DefaultSceneDurations.Open + runtime.DefaultDebounce)

	assert.True(t, h.machine.HandleLogoClick())
	assert.Equal(t, domain.MenuClosing, h.machine.Phase())
}

func TestMachine_SnapshotAfterBoot(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	s := h.machine.Snapshot()
	assert.Equal(t, domain.Idle, s.Phase)
	require.NotNil(t, s.Previous)
	assert.Equal(t, domain.Initializing, *s.Previous)
	require.NotNil(t, s.Last)
	assert.Equal(t, "/", s.Route)
	assert.True(t, s.Interactive)
	assert.Nil(t, s.Animations)
}

func TestMachine_DirectCommitInterruptsMenuOpening(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(runtime.DefaultDebounce)
	require.True(t, h.machine.RequestTransition(domain.Idle))
	assert.Empty(t, h.registry.Groups(), "the open sequence is paused")

	h.clock.Advance(3 * memory.DefaultSceneDurations.Open)
	assert.Equal(t, domain.Idle, h.machine.Phase())
	rec, ok := h.machine.LastTransition()
	require.True(t, ok)
	assert.Equal(t, domain.MenuOpening, rec.From)
	assert.Equal(t, domain.Idle, rec.To)

	assert.True(t, h.visible(domain.ElementContinuePrompt))
	assert.False(t, h.visible(domain.ElementMenuContainer))
	assert.False(t, h.visible(domain.ElementMenuItems))
	assert.Less(t, h.scene.State().Openness, 1.0)
	assert.True(t, h.machine.CanInteract())
}

func TestMachine_DirectCommitInterruptsMenuClosing(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")
	h.openMenu(t)

	require.True(t, h.machine.CloseMenu())
	h.clock.Advance(runtime.DefaultDebounce)
	require.True(t, h.machine.RequestTransition(domain.MenuOpening))

	h.clock.Advance(memory.DefaultSceneDurations.Open + runtime.DefaultDebounce)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	rec, ok := h.machine.LastTransition()
	require.True(t, ok)
	assert.Equal(t, domain.MenuOpening, rec.From)
	assert.Equal(t, domain.MenuOpen, rec.To)

	// The paused close sequence never reports back.
	h.clock.Advance(3 * memory.DefaultSceneDurations.Close)
	assert.Equal(t, domain.MenuOpen, h.machine.Phase())
	assert.True(t, h.visible(domain.ElementMenuContainer))
	assert.True(t, h.visible(domain.ElementMenuItems))
	assert.False(t, h.visible(domain.ElementContinuePrompt))
	assert.InDelta(t, 1.0, h.scene.State().Openness, 1e-9)
	assert.Equal(t, 2, countCalls(h.scene.Calls(), "logo-open"))
	assert.Empty(t, h.registry.Groups())
}

func TestMachine_StaleCompletionAfterRoundTrip(t *testing.T) {
	h := newHarness(t, runtime.WithEntryAction(domain.Idle, func(*runtime.Machine, domain.Phase) error { return nil }))
	h.boot(t, "/")

	// Without the Idle entry action nothing pauses the open sequence; only the
	// commit counter keeps its completion from landing.
	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(runtime.DefaultDebounce)
	require.True(t, h.machine.RequestTransition(domain.Idle))

	h.clock.Advance(3 * memory.DefaultSceneDurations.Open)
	assert.Equal(t, domain.Idle, h.machine.Phase())
	assert.Equal(t, domain.MenuOpening, h.transitions[len(h.transitions)-1].Record.From)
}
