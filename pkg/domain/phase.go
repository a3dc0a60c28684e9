package domain

import (
	"fmt"
	"strings"
)

// Phase is the single authoritative value describing which stage of the
// intro/menu/navigation lifecycle the app is in.
type Phase int

const (
	Initializing Phase = iota
	Idle
	MenuOpening
	MenuOpen
	MenuClosing
	TransitioningToSubpage
	TransitioningToHome
	Subpage
)

// AnyPhase is the wildcard filter used by subscriptions ("*").
// It is never a valid transition target.
const AnyPhase Phase = -1

var phaseNames = [...]string{
	Initializing:           "Initializing",
	Idle:                   "Idle",
	MenuOpening:            "MenuOpening",
	MenuOpen:               "MenuOpen",
	MenuClosing:            "MenuClosing",
	TransitioningToSubpage: "TransitioningToSubpage",
	TransitioningToHome:    "TransitioningToHome",
	Subpage:                "Subpage",
}

// Phases returns every valid phase in declaration order.
func Phases() []Phase {
	out := make([]Phase, 0, len(phaseNames))
	for i := range phaseNames {
		out = append(out, Phase(i))
	}
	return out
}

// Valid reports whether p is a member of the phase enumeration.
func (p Phase) Valid() bool {
	return p >= Initializing && p <= Subpage
}

// IsTransitional is true for the phases that only exist while an animation
// or navigation is in flight.
func (p Phase) IsTransitional() bool {
	switch p {
	case MenuOpening, MenuClosing, TransitioningToSubpage, TransitioningToHome:
		return true
	}
	return false
}

// Matches reports whether p satisfies a subscription filter.
func (p Phase) Matches(filter Phase) bool {
	return filter == AnyPhase || filter == p
}

func (p Phase) String() string {
	if p == AnyPhase {
		return "*"
	}
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() && p != AnyPhase {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPhase, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name (case-insensitive, "*" for AnyPhase).
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a phase by name. Matching ignores case, dashes and
// underscores, so "menu_open" and "MenuOpen" are equivalent.
func ParsePhase(s string) (Phase, error) {
	key := normalizePhaseName(s)
	if key == "*" {
		return AnyPhase, nil
	}
	for i, name := range phaseNames {
		if normalizePhaseName(name) == key {
			return Phase(i), nil
		}
	}
	return AnyPhase, fmt.Errorf("%w: %q", ErrInvalidPhase, s)
}

func normalizePhaseName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}
