package runtime

import (
	"github.com/aretw0/vestibule/internal/coordinator"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/registry"
)

func defaultEntryActions() map[domain.Phase]EntryAction {
	return map[domain.Phase]EntryAction{
		domain.Initializing:           enterStable,
		domain.Idle:                   enterSettled,
		domain.MenuOpening:            enterMenuOpening,
		domain.MenuOpen:               enterStable,
		domain.MenuClosing:            enterMenuClosing,
		domain.TransitioningToSubpage: enterPageLeave,
		domain.TransitioningToHome:    enterPageLeave,
		domain.Subpage:                enterSettled,
	}
}

// enterStable projects the phase layout immediately.
func enterStable(m *Machine, _ domain.Phase) error {
	m.enforce(true)
	return nil
}

// enterSettled handles Idle and Subpage: after a navigation the page-enter
// sequence runs first and the layout is enforced once it completes.
func enterSettled(m *Machine, from domain.Phase) error {
	if from == domain.MenuOpening || from == domain.MenuClosing {
		m.cancelMenuRun()
	}
	if from != domain.TransitioningToHome && from != domain.TransitioningToSubpage {
		m.enforce(true)
		return nil
	}
	epoch := m.epoch
	ctx := coordinator.Context{OnHome: m.OnHome(), ToHome: m.phase == domain.Idle}
	_, err := m.coordinator.Run(coordinator.SequencePageEnter, ctx, func(res coordinator.Result) {
		m.logSequence(res)
		if m.epoch == epoch {
			m.enforce(true)
		}
	})
	return err
}

func enterMenuOpening(m *Machine, _ domain.Phase) error {
	epoch := m.epoch
	_, err := m.coordinator.Run(coordinator.SequenceMenuOpen, coordinator.Context{OnHome: m.OnHome()}, func(res coordinator.Result) {
		m.logSequence(res)
		m.advance(epoch, domain.MenuOpen)
	})
	return err
}

func enterMenuClosing(m *Machine, _ domain.Phase) error {
	epoch := m.epoch
	_, err := m.coordinator.Run(coordinator.SequenceMenuClose, coordinator.Context{OnHome: m.OnHome()}, func(res coordinator.Result) {
		m.logSequence(res)
		m.advance(epoch, domain.Idle)
	})
	return err
}

// cancelMenuRun pauses a menu sequence that a direct commit left behind, so its
// tweens stop in place and its completion never fires.
func (m *Machine) cancelMenuRun() {
	for _, g := range []registry.Group{registry.GroupMenu, registry.GroupLogo, registry.GroupPrompt, registry.GroupDistortion} {
		m.registry.ClearGroup(g)
	}
}

// enterPageLeave cancels every menu and logo animation before the new route's
// lifecycle begins, so no stale callback fires against a replaced DOM.
func enterPageLeave(m *Machine, _ domain.Phase) error {
	for _, g := range []registry.Group{registry.GroupMenu, registry.GroupLogo, registry.GroupPrompt} {
		m.registry.ClearGroup(g)
	}
	m.enforce(true)
	ctx := coordinator.Context{OnHome: m.OnHome(), ToHome: m.phase == domain.TransitioningToHome}
	_, err := m.coordinator.Run(coordinator.SequencePageLeave, ctx, m.logSequence)
	return err
}

func (m *Machine) logSequence(res coordinator.Result) {
	if res.Err != nil {
		m.logger.Warn("sequence completed by timeout", "sequence", res.Sequence, "error", res.Err)
		return
	}
	m.logger.Debug("sequence completed", "sequence", res.Sequence, "skipped", res.Skipped, "duration", res.Duration)
}
