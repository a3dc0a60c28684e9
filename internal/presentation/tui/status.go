package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/domain"
)

var phaseColors = map[domain.Phase]string{
	domain.Initializing:           "#94a3b8",
	domain.Idle:                   "#34d399",
	domain.MenuOpening:            "#fbbf24",
	domain.MenuOpen:               "#818cf8",
	domain.MenuClosing:            "#fbbf24",
	domain.TransitioningToSubpage: "#f472b6",
	domain.TransitioningToHome:    "#f472b6",
	domain.Subpage:                "#38bdf8",
}

// Status formats one-line summaries of the app for a terminal.
type Status struct {
	out *termenv.Output
}

// NewStatus creates a formatter for out. A nil out formats without colors.
func NewStatus(out *termenv.Output) *Status {
	return &Status{out: out}
}

func (s *Status) paint(text, color string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Foreground(s.out.Color(color)).String()
}

func (s *Status) faint(text string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Faint().String()
}

// Line renders the phase, the route and the visible elements.
func (s *Status) Line(snap domain.Snapshot, elements map[domain.ElementID]memory.ElementState) string {
	var b strings.Builder
	b.WriteString(s.paint(fmt.Sprintf("%-22s", snap.Phase), phaseColors[snap.Phase]))
	fmt.Fprintf(&b, " %-12s", snap.Route)

	lock := "interactive"
	if !snap.Interactive {
		lock = "locked"
	}
	b.WriteString(" " + s.faint(lock))

	var visible []string
	for id, st := range elements {
		if st.Visible() {
			visible = append(visible, string(id))
		}
	}
	sort.Strings(visible)
	if len(visible) > 0 {
		b.WriteString("  [" + strings.Join(visible, " ") + "]")
	}

	if len(snap.Animations) > 0 {
		groups := make([]string, 0, len(snap.Animations))
		for g, n := range snap.Animations {
			groups = append(groups, fmt.Sprintf("%s:%d", g, n))
		}
		sort.Strings(groups)
		b.WriteString(" " + s.faint("anim "+strings.Join(groups, ",")))
	}
	return b.String()
}

// Transition renders a committed transition.
func (s *Status) Transition(rec domain.TransitionRecord) string {
	return fmt.Sprintf("%s %s %s",
		s.paint(rec.From.String(), phaseColors[rec.From]),
		s.faint("->"),
		s.paint(rec.To.String(), phaseColors[rec.To]),
	)
}
