package memory

import (
	"time"

	"github.com/aretw0/vestibule/pkg/clock"
)

// valueTween interpolates a float linearly between two values on a clock.
// It implements ports.Handle.
type valueTween struct {
	clock    clock.Clock
	from, to float64
	start    time.Time
	duration time.Duration
	set      func(float64)
	onDone   func()
	timer    clock.Timer
	active   bool
}

func startTween(c clock.Clock, from, to float64, d time.Duration, set func(float64), onDone func()) *valueTween {
	t := &valueTween{
		clock:    c,
		from:     from,
		to:       to,
		start:    c.Now(),
		duration: d,
		set:      set,
		onDone:   onDone,
		active:   true,
	}
	t.timer = c.AfterFunc(d, t.finish)
	return t
}

// value returns the interpolated value at the current clock time.
func (t *valueTween) value() float64 {
	if t.duration <= 0 {
		return t.to
	}
	p := float64(t.clock.Now().Sub(t.start)) / float64(t.duration)
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return t.from + (t.to-t.from)*p
}

// Pause freezes the property at its last evaluated value.
func (t *valueTween) Pause() {
	if !t.active {
		return
	}
	t.active = false
	t.timer.Stop()
	t.set(t.value())
}

func (t *valueTween) Active() bool { return t.active }

// hang stops the tween from ever completing while leaving it active,
// simulating an asset that never signals.
func (t *valueTween) hang() {
	t.timer.Stop()
}

func (t *valueTween) finish() {
	if !t.active {
		return
	}
	t.active = false
	t.set(t.to)
	if t.onDone != nil {
		t.onDone()
	}
}
