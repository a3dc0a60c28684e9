package domain

// ElementID is a stable identifier of a DOM node the core touches.
type ElementID string

const (
	ElementMenuContainer   ElementID = "menu-container"
	ElementMenuItems       ElementID = "menu-items"
	ElementContinuePrompt  ElementID = "continue-prompt"
	ElementSceneContainer  ElementID = "scene-container"
	ElementBackToHome      ElementID = "back-to-home"
	ElementTransitionCover ElementID = "transition-cover"
)

// Elements lists every element the projector manages.
func Elements() []ElementID {
	return []ElementID{
		ElementMenuContainer,
		ElementMenuItems,
		ElementContinuePrompt,
		ElementSceneContainer,
		ElementBackToHome,
		ElementTransitionCover,
	}
}

// Binary visibility contract shared by the projector and the coordinator.
const (
	ClassHidden  = "hidden"
	ClassVisible = "visible"
)

// Style properties animated by the core.
const (
	StyleOpacity   = "opacity"
	StyleTransform = "transform"
)
