package ports

import "github.com/aretw0/vestibule/pkg/domain"

// DOM resolves the managed elements by their stable identifier.
// A nil Element with ok == false means the node is not currently in the document.
type DOM interface {
	Element(id domain.ElementID) (Element, bool)
}

// Element is the minimal surface the core needs from a DOM node.
type Element interface {
	ID() domain.ElementID
	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool
	SetStyle(prop, value string)
	Style(prop string) (string, bool)
	// ClearInlineStyles removes every inline style, typically left by aborted animations.
	ClearInlineStyles()
}

// SetVisible applies the binary hidden/visible class contract.
func SetVisible(el Element, visible bool) {
	if visible {
		el.RemoveClass(domain.ClassHidden)
		el.AddClass(domain.ClassVisible)
		return
	}
	el.RemoveClass(domain.ClassVisible)
	el.AddClass(domain.ClassHidden)
}

// IsVisible reports the class-level visibility of el.
func IsVisible(el Element) bool {
	return el.HasClass(domain.ClassVisible) && !el.HasClass(domain.ClassHidden)
}
