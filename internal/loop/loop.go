// Package loop serializes every call into the presentation core onto a single
// goroutine and provides a wall clock whose timers fire on that goroutine.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/clock"
)

// ErrClosed is returned when work is submitted to a loop that has stopped.
var ErrClosed = errors.New("loop closed")

const defaultInboxSize = 64

// Loop owns the goroutine the state machine runs on.
type Loop struct {
	inbox  chan func()
	done   chan struct{}
	closed atomic.Bool
	logger *slog.Logger
}

// Option configures the Loop.
type Option func(*Loop)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithInboxSize sets the inbox buffer.
func WithInboxSize(n int) Option {
	return func(l *Loop) {
		l.inbox = make(chan func(), n)
	}
}

// New creates a stopped loop. Call Run to start processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		inbox:  make(chan func(), defaultInboxSize),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes posted work until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.closed.Store(true)
		close(l.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.inbox:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn. It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- fmt.Errorf("loop task panicked: %v", r)
			}
		}()
		reply <- fn()
	}
	select {
	case l.inbox <- task:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Now implements clock.Clock.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc implements clock.Clock: fn runs on the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, fn func()) clock.Timer {
	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			// Stop may have raced with the wall timer; it always runs on the loop.
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

type timer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (t *timer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.t.Stop()
}

var _ clock.Clock = (*Loop)(nil)
