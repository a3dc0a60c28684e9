package domain

import "time"

// TransitionRecord describes the latest committed phase change.
// Only the most recent record is retained; each commit supersedes the previous one.
type TransitionRecord struct {
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// TimestampMs returns the commit time in Unix milliseconds.
func (r TransitionRecord) TimestampMs() int64 {
	return r.Timestamp.UnixMilli()
}

// Snapshot is a read-only view of the state machine for diagnostics.
type Snapshot struct {
	Phase                Phase             `json:"phase"`
	Previous             *Phase            `json:"previous,omitempty"`
	Last                 *TransitionRecord `json:"last_transition,omitempty"`
	Route                string            `json:"route"`
	NavigatingBackToHome bool              `json:"navigating_back_to_home"`
	Interactive          bool              `json:"interactive"`
	Animations           map[string]int    `json:"animations,omitempty"`
}
