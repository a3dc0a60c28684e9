package memory

import (
	"strconv"
	"time"

	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
)

// Animator implements ports.Animator by tweening numeric inline styles on a clock.
type Animator struct {
	clock clock.Clock
}

// NewAnimator creates an animator driven by c.
func NewAnimator(c clock.Clock) *Animator {
	return &Animator{clock: c}
}

// Tween animates prop on el from its current inline value to `to`.
func (a *Animator) Tween(el ports.Element, prop string, to float64, d time.Duration, onDone func()) ports.Handle {
	from := currentValue(el, prop)
	set := func(v float64) { el.SetStyle(prop, FormatValue(v)) }
	return startTween(a.clock, from, to, d, set, onDone)
}

// FormatValue renders a style value the way the animator writes it.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func currentValue(el ports.Element, prop string) float64 {
	if raw, ok := el.Style(prop); ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	// Computed default when no inline style is set.
	if prop == domain.StyleOpacity {
		return 1
	}
	return 0
}
