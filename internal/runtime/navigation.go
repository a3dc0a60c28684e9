package runtime

import (
	"github.com/aretw0/vestibule/pkg/domain"
)

// PrepareForTransition commits TransitioningToHome or TransitioningToSubpage,
// bypassing the quiet interval: the navigation happens regardless of it.
// When toHome is set, the navigation intent flag is raised.
func (m *Machine) PrepareForTransition(toHome bool) error {
	target := domain.TransitioningToSubpage
	if toHome {
		target = domain.TransitioningToHome
		m.navigatingBackToHome = true
	}
	return m.commit(target, true)
}

// OnBeforeRouteChange translates a navigation start into a transition.
// Navigating to the route already shown is ignored.
func (m *Machine) OnBeforeRouteChange(target string) error {
	if domain.NormalizeRoute(target) == domain.NormalizeRoute(m.route) {
		m.logger.Debug("ignoring navigation to current route", "route", target)
		return nil
	}
	m.pendingRoute, m.hasPendingRoute = target, true
	toHome := domain.IsHomeRoute(target, m.homeRoute)
	m.logger.Debug("route leaving", "from", m.route, "to", target, "to_home", toHome)
	return m.PrepareForTransition(toHome)
}

// OnAfterRouteChange completes a navigation: the new route becomes active and a
// pending TransitioningTo* phase settles into Subpage or Idle.
func (m *Machine) OnAfterRouteChange() error {
	return m.settleNavigation()
}

// OnPageReady is the last navigation hook. It settles a navigation whose
// after-route event never arrived and runs a recovery enforcement pass when no
// sequence is left to do it.
func (m *Machine) OnPageReady() error {
	if err := m.settleNavigation(); err != nil {
		return err
	}
	if len(m.registry.Groups()) == 0 {
		m.Enforce()
	}
	return nil
}

func (m *Machine) settleNavigation() error {
	if m.hasPendingRoute {
		m.route = m.pendingRoute
		m.hasPendingRoute = false
	}
	consumed := m.consumeNavigationIntent()
	switch m.phase {
	case domain.TransitioningToSubpage:
		return m.commit(domain.Subpage, true)
	case domain.TransitioningToHome:
		if !consumed {
			m.logger.Warn("settling home navigation without intent flag", "route", m.route)
		}
		return m.commit(domain.Idle, true)
	}
	return nil
}

// consumeNavigationIntent resets the flag and reports whether it was set.
// It is the only reader that clears it, so the flag is consumed exactly once.
func (m *Machine) consumeNavigationIntent() bool {
	if !m.navigatingBackToHome {
		return false
	}
	m.navigatingBackToHome = false
	m.logger.Debug("navigation intent consumed", "route", m.route)
	return true
}
