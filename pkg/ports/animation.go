package ports

import "time"

// Handle is an opaque reference to a running tween or timeline.
//
// Pause must leave the animated property at its last evaluated value (no snap to the
// start or end) and must suppress any pending completion callback. Pause is idempotent.
type Handle interface {
	Pause()
	Active() bool
}

// Animator starts property tweens on DOM elements.
// onDone is invoked once when the tween reaches its end value; never after Pause.
type Animator interface {
	Tween(el Element, prop string, to float64, d time.Duration, onDone func()) Handle
}

// NewHandle returns a Handle that runs pause the first time it is paused.
func NewHandle(pause func()) Handle {
	return &funcHandle{pause: pause, active: true}
}

type funcHandle struct {
	pause  func()
	active bool
}

func (h *funcHandle) Pause() {
	if !h.active {
		return
	}
	h.active = false
	if h.pause != nil {
		h.pause()
	}
}

func (h *funcHandle) Active() bool { return h.active }

// Finish marks a handle created by NewHandle as completed without pausing it.
func Finish(h Handle) {
	if fh, ok := h.(*funcHandle); ok {
		fh.active = false
	}
}
