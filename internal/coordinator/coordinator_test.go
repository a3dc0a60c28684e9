package coordinator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	clock    *clock.Manual
	doc      *memory.Document
	scene    *memory.Scene
	registry *registry.Registry
	coord    *coordinator.Coordinator
}

func newFixture(t *testing.T, withScene bool, opts ...coordinator.Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewManual(epoch),
		doc:      memory.NewDocument(),
		registry: registry.NewRegistry(),
	}
	base := []coordinator.Option{coordinator.WithAnimator(memory.NewAnimator(f.clock))}
	if withScene {
		f.scene = memory.NewScene(f.clock)
		base = append(base, coordinator.WithScene(f.scene))
	}
	f.coord = coordinator.New(f.clock, f.registry, f.doc, append(base, opts...)...)
	return f
}

func (f *fixture) elapsed() time.Duration { return f.clock.Now().Sub(epoch) }

func TestRun_OrderOffsetsAndJoin(t *testing.T) {
	f := newFixture(t, false)
	starts := map[string]time.Duration{}
	step := func(name string, group registry.Group, offset time.Duration, after bool, lasts time.Duration) coordinator.Step {
		return coordinator.Step{
			Name: name, Group: group, Offset: offset, AfterPrevious: after,
			Run: func(s *coordinator.StepContext) error {
				starts[name] = f.elapsed()
				s.DoneAfter(lasts)
				return nil
			},
		}
	}
	f.coord.Register(coordinator.Sequence{
		Name: "custom",
		Steps: []coordinator.Step{
			step("a", registry.GroupLogo, 0, false, 500*time.Millisecond),
			step("b", registry.GroupMenu, 100*time.Millisecond, false, 100*time.Millisecond),
			step("c", registry.GroupMenu, 50*time.Millisecond, true, 0),
		},
	})

	var results []coordinator.Result
	_, err := f.coord.Run("custom", coordinator.Context{}, func(r coordinator.Result) {
		results = append(results, r)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.registry.Active(registry.GroupLogo))
	assert.Equal(t, 1, f.registry.Active(registry.GroupMenu), "a run is one handle per group")

	f.clock.Advance(499 * time.Millisecond)
	assert.Empty(t, results, "join waits for the slowest step")
	assert.Equal(t, map[string]time.Duration{
		"a": 0,
		"b": 100 * time.Millisecond,
		"c": 250 * time.Millisecond,
	}, starts)

	f.clock.Advance(10 * time.Second)
	require.Len(t, results, 1, "completion fires exactly once")
	assert.Equal(t, 500*time.Millisecond, results[0].Duration)
	assert.NoError(t, results[0].Err)
	assert.Empty(t, f.registry.Groups(), "finished runs release their groups")
}

func TestRun_MenuOpenWithoutScene(t *testing.T) {
	f := newFixture(t, false)
	var res *coordinator.Result
	_, err := f.coord.Run(coordinator.SequenceMenuOpen, coordinator.Context{OnHome: true}, func(r coordinator.Result) {
		res = &r
	})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)
	require.NotNil(t, res)
	assert.ElementsMatch(t, []string{"logo-open", "distortion-pulse"}, res.Skipped)

	snap := f.doc.Snapshot()
	assert.True(t, snap[domain.ElementMenuContainer].Visible())
	assert.True(t, snap[domain.ElementMenuItems].Visible())
	assert.False(t, snap[domain.ElementContinuePrompt].Visible())
	assert.Equal(t, "1", snap[domain.ElementMenuContainer].Styles[domain.StyleOpacity])
}

func TestRun_MenuOpenWaitsForLogo(t *testing.T) {
	f := newFixture(t, true)
	done := false
	_, err := f.coord.Run(coordinator.SequenceMenuOpen, coordinator.Context{OnHome: true}, func(coordinator.Result) { done = true })
	require.NoError(t, err)

	f.clock.Advance(memory.DefaultSceneDurations.Open - time.Millisecond)
	assert.False(t, done)
	f.clock.Advance(time.Millisecond)
	assert.True(t, done)
	assert.Equal(t, 1.0, f.scene.State().Openness)
}

func TestRun_MissingElementDoesNotBlock(t *testing.T) {
	var skipped []string
	hooks := domain.LifecycleHooks{OnStepSkipped: func(_, step string, err error) {
		assert.ErrorIs(t, err, domain.ErrMissingTarget)
		skipped = append(skipped, step)
	}}
	f := newFixture(t, true, coordinator.WithLifecycleHooks(hooks))
	f.doc.Remove(domain.ElementMenuItems)

	var res *coordinator.Result
	_, err := f.coord.Run(coordinator.SequenceMenuOpen, coordinator.Context{}, func(r coordinator.Result) { res = &r })
	require.NoError(t, err)
	f.clock.Advance(5 * time.Second)

	require.NotNil(t, res)
	assert.Equal(t, []string{"menu-items-reveal"}, res.Skipped)
	assert.Equal(t, []string{"menu-items-reveal"}, skipped)
}

func TestRun_ClearBeforeStartPreemptsGroup(t *testing.T) {
	f := newFixture(t, true)
	firstDone := false
	first, err := f.coord.Run(coordinator.SequenceMenuOpen, coordinator.Context{}, func(coordinator.Result) { firstDone = true })
	require.NoError(t, err)
	f.clock.Advance(400 * time.Millisecond)

	secondDone := false
	second, err := f.coord.Run(coordinator.SequenceMenuClose, coordinator.Context{}, func(coordinator.Result) { secondDone = true })
	require.NoError(t, err)

	assert.False(t, first.Active(), "the preempted run is paused")
	assert.True(t, second.Active())
	for _, g := range []registry.Group{registry.GroupLogo, registry.GroupMenu, registry.GroupDistortion} {
		assert.Equal(t, 1, f.registry.Active(g), "group %s holds exactly one animation", g)
	}

	// Pausing froze the logo a third of the way open; the close animation starts from there.
	assert.InDelta(t, 1.0/3, f.scene.State().Openness, 0.01)

	f.clock.Advance(10 * time.Second)
	assert.False(t, firstDone, "a paused run never fires its completion")
	assert.True(t, secondDone)
}

func TestRun_PauseKeepsLastEvaluatedValue(t *testing.T) {
	f := newFixture(t, false)
	run, err := f.coord.Run(coordinator.SequencePageLeave, coordinator.Context{}, func(coordinator.Result) {
		t.Fatal("paused run completed")
	})
	require.NoError(t, err)

	f.clock.Advance(250 * time.Millisecond)
	f.registry.ClearGroup(registry.GroupCover)
	assert.False(t, run.Active())

	cover, _ := f.doc.Element(domain.ElementTransitionCover)
	v, _ := cover.Style(domain.StyleOpacity)
	assert.Equal(t, "0.5", v)
	f.clock.Advance(5 * time.Second)
}

func TestRun_TimeoutForcesJoin(t *testing.T) {
	var errs []error
	f := newFixture(t, true,
		coordinator.WithTimeout(2*time.Second),
		coordinator.WithLifecycleHooks(domain.LifecycleHooks{OnError: func(err error) { errs = append(errs, err) }}),
	)
	f.scene.SetHang(true)

	var res *coordinator.Result
	_, err := f.coord.Run(coordinator.SequenceMenuOpen, coordinator.Context{}, func(r coordinator.Result) { res = &r })
	require.NoError(t, err)

	f.clock.Advance(1999 * time.Millisecond)
	assert.Nil(t, res)
	f.clock.Advance(time.Millisecond)
	require.NotNil(t, res)
	assert.ErrorIs(t, res.Err, domain.ErrSequenceStall)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "logo-open")
	assert.Empty(t, f.registry.Groups())
}

func TestRun_PanickingStepIsSkipped(t *testing.T) {
	f := newFixture(t, false)
	var reported error
	f.coord = coordinator.New(f.clock, f.registry, f.doc,
		coordinator.WithLifecycleHooks(domain.LifecycleHooks{OnError: func(err error) { reported = err }}),
		coordinator.WithSequence(coordinator.Sequence{
			Name: "broken",
			Steps: []coordinator.Step{
				{Name: "explode", Run: func(*coordinator.StepContext) error { panic("kaboom") }},
				{Name: "fine", Run: func(s *coordinator.StepContext) error { s.Done(); return nil }},
			},
		}),
	)

	var res *coordinator.Result
	_, err := f.coord.Run("broken", coordinator.Context{}, func(r coordinator.Result) { res = &r })
	require.NoError(t, err)
	require.NotNil(t, res, "synchronous steps complete before Run returns")
	assert.Equal(t, []string{"explode"}, res.Skipped)
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "kaboom")
}

func TestRun_UnknownSequence(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.coord.Run("nope", coordinator.Context{}, nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownSequence))
}

func TestRun_WithoutAnimatorAppliesEndState(t *testing.T) {
	f := &fixture{clock: clock.NewManual(epoch), doc: memory.NewDocument(), registry: registry.NewRegistry()}
	f.coord = coordinator.New(f.clock, f.registry, f.doc)

	done := false
	_, err := f.coord.Run(coordinator.SequenceMenuClose, coordinator.Context{}, func(coordinator.Result) { done = true })
	require.NoError(t, err)
	f.clock.Advance(time.Second)

	assert.True(t, done)
	snap := f.doc.Snapshot()
	assert.False(t, snap[domain.ElementMenuContainer].Visible())
	assert.Equal(t, "0", snap[domain.ElementMenuContainer].Styles[domain.StyleOpacity])
}

func TestSequence_Groups(t *testing.T) {
	f := newFixture(t, false)
	seq, ok := f.coord.Sequence(coordinator.SequenceMenuOpen)
	require.True(t, ok)
	assert.Equal(t, []registry.Group{
		registry.GroupPrompt, registry.GroupLogo, registry.GroupDistortion, registry.GroupMenu,
	}, seq.Groups())
}
