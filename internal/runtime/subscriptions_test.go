package runtime_test

import (
	"testing"

	"github.com/aretw0/vestibule/internal/runtime"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_OrderAndFilters(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	var got []string
	record := func(name string) func(domain.TransitionRecord) {
		return func(rec domain.TransitionRecord) {
			got = append(got, name+":"+rec.To.String())
		}
	}
	_, err := h.machine.Subscribe(domain.AnyPhase, domain.AnyPhase, record("all"))
	require.NoError(t, err)
	_, err = h.machine.Subscribe(domain.Idle, domain.MenuOpening, record("open"))
	require.NoError(t, err)
	_, err = h.machine.Subscribe(domain.AnyPhase, domain.MenuOpen, record("opened"))
	require.NoError(t, err)

	require.True(t, h.machine.OpenMenu())
	h.clock.Advance(memory.DefaultSceneDurations.Open)

	assert.Equal(t, []string{
		"all:" + domain.MenuOpening.String(),
		"open:" + domain.MenuOpening.String(),
		"all:" + domain.MenuOpen.String(),
		"opened:" + domain.MenuOpen.String(),
	}, got)
}

func TestSubscribe_InvalidFilter(t *testing.T) {
	h := newHarness(t)

	_, err := h.machine.Subscribe(domain.Phase(99), domain.AnyPhase, func(domain.TransitionRecord) {})
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)

	_, err = h.machine.Subscribe(domain.AnyPhase, domain.Idle, nil)
	assert.Error(t, err)
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	calls := 0
	id, err := h.machine.Subscribe(domain.AnyPhase, domain.AnyPhase, func(domain.TransitionRecord) { calls++ })
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.True(t, h.machine.Unsubscribe(id))
	assert.False(t, h.machine.Unsubscribe(id))

	require.NoError(t, h.machine.Transition(domain.Subpage))
	assert.Zero(t, calls)
}

func TestSubscribe_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	h := newHarness(t)
	h.boot(t, "/")

	_, err := h.machine.Subscribe(domain.AnyPhase, domain.AnyPhase, func(domain.TransitionRecord) { panic("bad subscriber") })
	require.NoError(t, err)
	var after []domain.TransitionRecord
	_, err = h.machine.Subscribe(domain.AnyPhase, domain.AnyPhase, func(rec domain.TransitionRecord) { after = append(after, rec) })
	require.NoError(t, err)

	require.NoError(t, h.machine.Transition(domain.Subpage))
	assert.Len(t, after, 1)
	assert.Equal(t, domain.Subpage, h.machine.Phase())
	require.NotEmpty(t, h.errs)
}

func TestSubscribe_RunsAfterEntryActions(t *testing.T) {
	var entered bool
	h := newHarness(t, runtime.WithEntryAction(domain.Subpage, func(*runtime.Machine, domain.Phase) error {
		entered = true
		return nil
	}))
	h.boot(t, "/")

	var sawEntry bool
	_, err := h.machine.Subscribe(domain.AnyPhase, domain.Subpage, func(domain.TransitionRecord) { sawEntry = entered })
	require.NoError(t, err)

	require.NoError(t, h.machine.Transition(domain.Subpage))
	assert.True(t, sawEntry)
}
