package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/vestibule/pkg/domain"
)

// OpenMenu opens the menu from Idle when interaction is permitted.
func (m *Machine) OpenMenu() bool {
	return m.TryOpenMenu() == nil
}

// TryOpenMenu is OpenMenu with the rejection reason.
func (m *Machine) TryOpenMenu() error {
	now := m.clock.Now()
	if m.phase != domain.Idle {
		m.reject(domain.MenuOpening, domain.RejectIllegal, now)
		return fmt.Errorf("%w: open menu from %s", domain.ErrIllegalTransition, m.phase)
	}
	if !m.CanInteract() {
		m.reject(domain.MenuOpening, domain.RejectInteraction, now)
		return domain.ErrInteractionDenied
	}
	return m.Transition(domain.MenuOpening)
}

// CloseMenu closes the menu from MenuOpen.
func (m *Machine) CloseMenu() bool {
	return m.TryCloseMenu() == nil
}

// TryCloseMenu is CloseMenu with the rejection reason.
func (m *Machine) TryCloseMenu() error {
	if m.phase != domain.MenuOpen {
		m.reject(domain.MenuClosing, domain.RejectIllegal, m.clock.Now())
		return fmt.Errorf("%w: close menu from %s", domain.ErrIllegalTransition, m.phase)
	}
	return m.Transition(domain.MenuClosing)
}

// HandleKey maps keyboard input onto menu operations: Space or Enter opens the
// menu, Escape closes it. It reports whether the key triggered a transition.
func (m *Machine) HandleKey(key string) bool {
	switch normalizeKey(key) {
	case "space", "enter":
		return m.OpenMenu()
	case "escape":
		if !m.CanInteract() {
			return false
		}
		return m.CloseMenu()
	}
	return false
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	switch k := strings.ToLower(strings.TrimSpace(key)); k {
	case "spacebar":
		return "space"
	case "return":
		return "enter"
	case "esc":
		return "escape"
	default:
		return k
	}
}

// HandleLogoClick toggles the menu from a pointer click on the logo.
func (m *Machine) HandleLogoClick() bool {
	switch m.phase {
	case domain.Idle:
		return m.OpenMenu()
	case domain.MenuOpen:
		if !m.CanInteract() {
			return false
		}
		return m.CloseMenu()
	}
	return false
}
