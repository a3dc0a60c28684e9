package memory

import (
	"sort"
	"sync"

	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
)

// Document implements ports.DOM in memory.
// Safe for concurrent use.
type Document struct {
	mu       sync.RWMutex
	elements map[domain.ElementID]*Element
}

// NewDocument creates a document holding the given elements,
// or every managed element when none are given.
func NewDocument(ids ...domain.ElementID) *Document {
	if len(ids) == 0 {
		ids = domain.Elements()
	}
	d := &Document{elements: make(map[domain.ElementID]*Element)}
	for _, id := range ids {
		d.Add(id)
	}
	return d
}

// Element resolves an element by id.
func (d *Document) Element(id domain.ElementID) (ports.Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[id]
	if !ok {
		return nil, false
	}
	return el, true
}

// Add inserts a fresh element, replacing any existing node with the same id
// (as a page swap would).
func (d *Document) Add(id domain.ElementID) *Element {
	el := &Element{
		id:      id,
		classes: make(map[string]struct{}),
		styles:  make(map[string]string),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[id] = el
	return el
}

// Remove detaches an element. It reports whether the element existed.
func (d *Document) Remove(id domain.ElementID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.elements[id]
	delete(d.elements, id)
	return ok
}

// ElementState is a copy of an element's observable state.
type ElementState struct {
	Classes []string          `json:"classes"`
	Styles  map[string]string `json:"styles,omitempty"`
}

// Visible reports the class-level visibility captured in the state.
func (s ElementState) Visible() bool {
	hidden, visible := false, false
	for _, c := range s.Classes {
		switch c {
		case domain.ClassHidden:
			hidden = true
		case domain.ClassVisible:
			visible = true
		}
	}
	return visible && !hidden
}

// Snapshot returns a deep copy of every element's classes and inline styles.
func (d *Document) Snapshot() map[domain.ElementID]ElementState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[domain.ElementID]ElementState, len(d.elements))
	for id, el := range d.elements {
		out[id] = el.state()
	}
	return out
}

// Element is an in-memory DOM node.
type Element struct {
	mu      sync.RWMutex
	id      domain.ElementID
	classes map[string]struct{}
	styles  map[string]string
}

func (e *Element) ID() domain.ElementID { return e.id }

func (e *Element) AddClass(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classes[name] = struct{}{}
}

func (e *Element) RemoveClass(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.classes, name)
}

func (e *Element) HasClass(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.classes[name]
	return ok
}

func (e *Element) SetStyle(prop, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.styles[prop] = value
}

func (e *Element) Style(prop string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.styles[prop]
	return v, ok
}

func (e *Element) ClearInlineStyles() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.styles = make(map[string]string)
}

func (e *Element) state() ElementState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := ElementState{Classes: make([]string, 0, len(e.classes))}
	for c := range e.classes {
		s.Classes = append(s.Classes, c)
	}
	sort.Strings(s.Classes)
	if len(e.styles) > 0 {
		s.Styles = make(map[string]string, len(e.styles))
		for k, v := range e.styles {
			s.Styles[k] = v
		}
	}
	return s
}
