package domain

import "time"

// RejectReason explains why a transition request was not committed.
type RejectReason string

const (
	RejectInvalidPhase RejectReason = "invalid_phase"
	RejectDebounced    RejectReason = "debounced"
	RejectIllegal      RejectReason = "illegal"
	RejectInteraction  RejectReason = "interaction_denied"
)

// TransitionEvent is emitted after a phase commit.
type TransitionEvent struct {
	Record TransitionRecord
	Forced bool // navigation-driven commit that bypassed the quiet interval
}

// RejectEvent is emitted when a request is dropped without mutation.
type RejectEvent struct {
	From      Phase
	Target    Phase
	Reason    RejectReason
	Timestamp time.Time
}

// SequenceEvent is emitted when a sequence starts and when it finishes.
type SequenceEvent struct {
	Name     string
	Skipped  []string
	Duration time.Duration
	Err      error
}

// EnforceEvent is emitted after an enforcement pass touched the DOM.
type EnforceEvent struct {
	Phase  Phase
	OnHome bool
}

// LifecycleHooks defines callbacks for observability of the core.
// All hooks run synchronously on the core's goroutine and must not block.
type LifecycleHooks struct {
	OnTransition    func(TransitionEvent)
	OnReject        func(RejectEvent)
	OnSequenceStart func(SequenceEvent)
	OnSequenceDone  func(SequenceEvent)
	OnStepSkipped   func(sequence, step string, err error)
	OnEnforce       func(EnforceEvent)
	OnError         func(error)
}

// Merge combines hook sets; each callback of every set is invoked in order.
func Merge(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnTransition = chain(out.OnTransition, h.OnTransition)
		out.OnReject = chain(out.OnReject, h.OnReject)
		out.OnSequenceStart = chain(out.OnSequenceStart, h.OnSequenceStart)
		out.OnSequenceDone = chain(out.OnSequenceDone, h.OnSequenceDone)
		out.OnEnforce = chain(out.OnEnforce, h.OnEnforce)
		out.OnError = chain(out.OnError, h.OnError)
		if h.OnStepSkipped != nil {
			prev := out.OnStepSkipped
			next := h.OnStepSkipped
			out.OnStepSkipped = func(seq, step string, err error) {
				if prev != nil {
					prev(seq, step, err)
				}
				next(seq, step, err)
			}
		}
	}
	return out
}

func chain[T any](a, b func(T)) func(T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(v T) {
		a(v)
		b(v)
	}
}
