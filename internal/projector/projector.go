// Package projector forces the managed DOM nodes into the state a phase requires.
//
// Enforcement is the self-healing pass of the presentation core: transitional
// phases can be interrupted by navigations at any point, and Enforce pulls the
// DOM back to the ground truth implied by the current phase. It never animates.
package projector

import (
	"log/slog"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
)

// Projector applies phase layouts to a DOM.
type Projector struct {
	dom    ports.DOM
	logger *slog.Logger
}

// Option configures the Projector.
type Option func(*Projector)

// WithLogger configures a logger for enforcement passes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

// New creates a projector over dom.
func New(dom ports.DOM, opts ...Option) *Projector {
	p := &Projector{dom: dom, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Layout returns the visibility each managed element must have in phase.
// onHome only matters for the continue prompt, which is shown on the home route alone.
func Layout(phase domain.Phase, onHome bool) map[domain.ElementID]bool {
	menu := phase == domain.MenuOpening || phase == domain.MenuOpen
	return map[domain.ElementID]bool{
		domain.ElementMenuContainer:   menu,
		domain.ElementMenuItems:       menu,
		domain.ElementContinuePrompt:  phase == domain.Idle && onHome,
		domain.ElementBackToHome:      phase == domain.Subpage,
		domain.ElementSceneContainer:  phase != domain.Subpage,
		domain.ElementTransitionCover: phase == domain.TransitioningToHome || phase == domain.TransitioningToSubpage,
	}
}

// Enforce sets the class combination phase requires on every managed element and
// clears inline styles left behind by aborted animations. Missing elements are skipped.
// Calling it repeatedly yields the same DOM state as calling it once.
func (p *Projector) Enforce(phase domain.Phase, onHome bool) {
	layout := Layout(phase, onHome)
	missing := 0
	for _, id := range domain.Elements() {
		el, ok := p.dom.Element(id)
		if !ok {
			missing++
			continue
		}
		ports.SetVisible(el, layout[id])
		el.ClearInlineStyles()
	}
	p.logger.Debug("enforced phase layout", "phase", phase, "on_home", onHome, "missing", missing)
}
