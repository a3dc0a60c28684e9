package coordinator

import (
	"time"

	"github.com/aretw0/vestibule/pkg/registry"
)

// StepFunc performs one step. It must eventually call s.Done (directly or via
// DoneAfter/Tween) unless it returns an error, in which case the step is skipped.
// Return domain.ErrMissingTarget when the element or 3D object is absent.
type StepFunc func(s *StepContext) error

// Step is one animation unit of a sequence.
type Step struct {
	Name  string
	Group registry.Group
	// Offset delays the start relative to the previous step's start, or to its
	// completion when AfterPrevious is set. For the first step it is relative to
	// the sequence start.
	Offset        time.Duration
	AfterPrevious bool
	Run           StepFunc
}

// Sequence is an ordered, possibly overlapping set of steps with one completion signal.
type Sequence struct {
	Name  string
	Steps []Step
}

// Groups returns the distinct groups used by the sequence, in first-use order.
func (s Sequence) Groups() []registry.Group {
	seen := make(map[registry.Group]bool)
	var out []registry.Group
	for _, st := range s.Steps {
		if st.Group == "" || seen[st.Group] {
			continue
		}
		seen[st.Group] = true
		out = append(out, st.Group)
	}
	return out
}
