package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPhase is returned when a transition targets a value outside the Phase enumeration.
var ErrInvalidPhase = errors.New("invalid phase")

// ErrTransitionDebounced is returned when a transition is requested inside the quiet interval.
// Callers are not expected to treat it as a failure; retrying later is safe.
var ErrTransitionDebounced = errors.New("transition debounced")

// ErrMissingTarget is returned by a sequence step whose DOM element or 3D object is absent.
var ErrMissingTarget = errors.New("missing target")

// ErrSequenceStall is reported when a sequence does not complete before its timeout.
var ErrSequenceStall = errors.New("sequence stalled")

// ErrInteractionDenied is returned when menu interaction is attempted off the home route
// or while a transitional phase is active.
var ErrInteractionDenied = errors.New("interaction not permitted")

// ErrIllegalTransition is returned when an operation is invoked from a phase it does not accept.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrUnknownSequence is returned when a sequence name is not registered.
var ErrUnknownSequence = errors.New("unknown sequence")

// ErrEntryAction marks a failure in a phase-entry action.
var ErrEntryAction = errors.New("phase entry action failed")

// EntryActionError carries the phase whose entry action failed.
// The phase commit has already taken effect when this error is returned.
type EntryActionError struct {
	Phase Phase
	Err   error
}

func (e *EntryActionError) Error() string {
	return fmt.Sprintf("entry action for %s: %v", e.Phase, e.Err)
}

func (e *EntryActionError) Unwrap() []error {
	return []error{ErrEntryAction, e.Err}
}
