package runtime

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/vestibule/pkg/domain"
)

type subscription struct {
	id       string
	from, to domain.Phase
	callback func(domain.TransitionRecord)
}

// Subscribe registers a callback for committed transitions matching both filters.
// Use domain.AnyPhase as a wildcard. Callbacks run synchronously, in registration
// order, after the entry actions of the new phase.
func (m *Machine) Subscribe(from, to domain.Phase, callback func(domain.TransitionRecord)) (string, error) {
	for _, f := range []domain.Phase{from, to} {
		if f != domain.AnyPhase && !f.Valid() {
			return "", fmt.Errorf("%w: filter %d", domain.ErrInvalidPhase, int(f))
		}
	}
	if callback == nil {
		return "", fmt.Errorf("subscribe: nil callback")
	}
	id := uuid.NewString()
	m.subs = append(m.subs, subscription{id: id, from: from, to: to, callback: callback})
	return id, nil
}

// Unsubscribe removes a subscription. It reports whether it existed.
func (m *Machine) Unsubscribe(id string) bool {
	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Machine) broadcast(rec domain.TransitionRecord) {
	// Iterate over a copy: callbacks may subscribe or unsubscribe.
	subs := append([]subscription(nil), m.subs...)
	for _, s := range subs {
		if !rec.From.Matches(s.from) || !rec.To.Matches(s.to) {
			continue
		}
		m.notify(s, rec)
	}
}

func (m *Machine) notify(s subscription, rec domain.TransitionRecord) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("subscriber %s panicked: %v", s.id, r)
			m.logger.Error("subscriber failed", "subscription", s.id, "error", err)
			if m.hooks.OnError != nil {
				m.hooks.OnError(err)
			}
		}
	}()
	s.callback(rec)
}
