package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
	"github.com/aretw0/vestibule/pkg/registry"
)

// Run is an in-flight sequence. It implements ports.Handle so the registry can
// pause it when another sequence claims one of its groups.
type Run struct {
	c      *Coordinator
	seq    Sequence
	ctx    Context
	onDone func(Result)
	groups []registry.Group

	started   time.Time
	begun     []bool
	completed []bool
	remaining int
	skipped   []string

	timers  []clock.Timer
	handles []ports.Handle
	timeout clock.Timer

	paused   bool
	finished bool
}

func newRun(c *Coordinator, seq Sequence, ctx Context, onDone func(Result)) *Run {
	return &Run{
		c:         c,
		seq:       seq,
		ctx:       ctx,
		onDone:    onDone,
		groups:    seq.Groups(),
		started:   c.clock.Now(),
		begun:     make([]bool, len(seq.Steps)),
		completed: make([]bool, len(seq.Steps)),
		remaining: len(seq.Steps),
	}
}

// Name returns the sequence name.
func (r *Run) Name() string { return r.seq.Name }

// Active reports whether the run can still complete.
func (r *Run) Active() bool { return !r.paused && !r.finished }

// Pause stops pending steps, pauses in-flight animations in place and drops the
// completion callback.
func (r *Run) Pause() {
	if !r.Active() {
		return
	}
	r.paused = true
	r.halt()
	r.release()
	r.c.logger.Debug("sequence paused", "sequence", r.seq.Name)
}

func (r *Run) begin() {
	if len(r.seq.Steps) == 0 {
		r.finish(nil)
		return
	}
	if r.c.timeout > 0 {
		r.timeout = r.c.clock.AfterFunc(r.c.timeout, r.stall)
	}
	r.schedule(0, r.seq.Steps[0].Offset)
}

func (r *Run) schedule(i int, delay time.Duration) {
	if delay <= 0 {
		r.start(i)
		return
	}
	r.timers = append(r.timers, r.c.clock.AfterFunc(delay, func() { r.start(i) }))
}

func (r *Run) start(i int) {
	if !r.Active() || r.begun[i] {
		return
	}
	r.begun[i] = true
	step := r.seq.Steps[i]

	sc := &StepContext{run: r, index: i}
	if err := r.invoke(step, sc); err != nil {
		r.skip(i, err)
	}

	if next := i + 1; next < len(r.seq.Steps) && !r.seq.Steps[next].AfterPrevious {
		r.schedule(next, r.seq.Steps[next].Offset)
	}
}

// invoke runs the step function, converting a panic into an error so a broken
// step never blocks the join.
func (r *Run) invoke(step Step, sc *StepContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, rec)
		}
	}()
	return step.Run(sc)
}

func (r *Run) skip(i int, err error) {
	name := r.seq.Steps[i].Name
	r.skipped = append(r.skipped, name)
	if errors.Is(err, domain.ErrMissingTarget) {
		r.c.logger.Debug("step skipped", "sequence", r.seq.Name, "step", name, "error", err)
	} else {
		r.c.logger.Warn("step failed", "sequence", r.seq.Name, "step", name, "error", err)
		if r.c.hooks.OnError != nil {
			r.c.hooks.OnError(fmt.Errorf("sequence %s: %w", r.seq.Name, err))
		}
	}
	if r.c.hooks.OnStepSkipped != nil {
		r.c.hooks.OnStepSkipped(r.seq.Name, name, err)
	}
	r.complete(i)
}

func (r *Run) complete(i int) {
	if !r.Active() || r.completed[i] {
		return
	}
	r.completed[i] = true
	r.remaining--

	if next := i + 1; next < len(r.seq.Steps) && r.seq.Steps[next].AfterPrevious {
		r.schedule(next, r.seq.Steps[next].Offset)
	}
	if r.remaining == 0 {
		r.finish(nil)
	}
}

func (r *Run) stall() {
	if !r.Active() {
		return
	}
	var pending []string
	for i, done := range r.completed {
		if !done {
			pending = append(pending, r.seq.Steps[i].Name)
		}
	}
	err := fmt.Errorf("%w: %s waiting on %v", domain.ErrSequenceStall, r.seq.Name, pending)
	r.c.logger.Warn("sequence timed out", "sequence", r.seq.Name, "pending", pending, "timeout", r.c.timeout)
	if r.c.hooks.OnError != nil {
		r.c.hooks.OnError(err)
	}
	r.halt()
	r.finish(err)
}

func (r *Run) finish(err error) {
	r.finished = true
	if r.timeout != nil {
		r.timeout.Stop()
	}
	r.release()

	res := Result{
		Sequence: r.seq.Name,
		Skipped:  r.skipped,
		Duration: r.c.clock.Now().Sub(r.started),
		Err:      err,
	}
	r.c.logger.Debug("sequence finished", "sequence", res.Sequence, "skipped", res.Skipped, "duration", res.Duration)
	if r.c.hooks.OnSequenceDone != nil {
		r.c.hooks.OnSequenceDone(domain.SequenceEvent{
			Name:     res.Sequence,
			Skipped:  res.Skipped,
			Duration: res.Duration,
			Err:      res.Err,
		})
	}
	if r.onDone != nil {
		r.onDone(res)
	}
}

// halt stops timers and pauses every handle started by the steps.
func (r *Run) halt() {
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	if r.timeout != nil {
		r.timeout.Stop()
	}
	for _, h := range r.handles {
		h.Pause()
	}
	r.handles = nil
}

func (r *Run) release() {
	for _, g := range r.groups {
		r.c.registry.Release(g, r)
	}
}

// StepContext gives a running step access to the collaborators and its completion signal.
type StepContext struct {
	run   *Run
	index int
}

// Context returns the sequence invocation context.
func (s *StepContext) Context() Context { return s.run.ctx }

// Timings returns the coordinator's timings.
func (s *StepContext) Timings() Timings { return s.run.c.timings }

// Done signals completion of the step. Calls after the first are ignored.
func (s *StepContext) Done() {
	s.run.complete(s.index)
}

// DoneAfter signals completion once d has elapsed, unless the run is paused first.
func (s *StepContext) DoneAfter(d time.Duration) {
	if d <= 0 {
		s.Done()
		return
	}
	s.run.timers = append(s.run.timers, s.run.c.clock.AfterFunc(d, s.Done))
}

// Track attaches an animation handle to the run so pausing the run pauses it.
func (s *StepContext) Track(h ports.Handle) {
	if h == nil || !h.Active() {
		return
	}
	s.run.handles = append(s.run.handles, h)
}

// Element resolves a DOM element or returns ErrMissingTarget.
func (s *StepContext) Element(id domain.ElementID) (ports.Element, error) {
	el, ok := s.run.c.dom.Element(id)
	if !ok {
		return nil, fmt.Errorf("%w: element %s", domain.ErrMissingTarget, id)
	}
	return el, nil
}

// Scene returns the scene bridge if it is present and ready, or ErrMissingTarget.
func (s *StepContext) Scene() (ports.SceneBridge, error) {
	scene := s.run.c.scene
	if scene == nil || !scene.IsReady() {
		return nil, fmt.Errorf("%w: scene not ready", domain.ErrMissingTarget)
	}
	return scene, nil
}

// Logo returns the scene bridge if the 3D logo is loaded, or ErrMissingTarget.
func (s *StepContext) Logo() (ports.SceneBridge, error) {
	scene, err := s.Scene()
	if err != nil {
		return nil, err
	}
	if _, ok := scene.LogoHandle(); !ok {
		return nil, fmt.Errorf("%w: logo not loaded", domain.ErrMissingTarget)
	}
	return scene, nil
}

// Tween animates a style property and completes the step when it ends, running
// then (if any) first. Without an animator the end value is applied immediately.
func (s *StepContext) Tween(el ports.Element, prop string, to float64, d time.Duration, then func()) {
	finish := func() {
		if then != nil {
			then()
		}
		s.Done()
	}
	a := s.run.c.animator
	if a == nil || d <= 0 {
		el.SetStyle(prop, formatFloat(to))
		finish()
		return
	}
	s.Track(a.Tween(el, prop, to, d, finish))
}
