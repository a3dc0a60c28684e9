package projector_test

import (
	"testing"

	"github.com/aretw0/vestibule/internal/projector"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestEnforce_Idempotent(t *testing.T) {
	for _, phase := range domain.Phases() {
		for _, onHome := range []bool{true, false} {
			doc := memory.NewDocument()
			p := projector.New(doc)

			p.Enforce(phase, onHome)
			once := doc.Snapshot()
			p.Enforce(phase, onHome)
			assert.Equal(t, once, doc.Snapshot(), "phase %s onHome=%v", phase, onHome)
		}
	}
}

func TestEnforce_RecoversStaleInlineStyles(t *testing.T) {
	doc := memory.NewDocument()
	menu, _ := doc.Element(domain.ElementMenuContainer)
	prompt, _ := doc.Element(domain.ElementContinuePrompt)

	// Leftovers of an aborted open animation.
	menu.AddClass(domain.ClassVisible)
	menu.SetStyle(domain.StyleOpacity, "0.42")
	prompt.AddClass(domain.ClassHidden)
	prompt.SetStyle(domain.StyleOpacity, "0")

	projector.New(doc).Enforce(domain.Idle, true)

	snap := doc.Snapshot()
	assert.False(t, snap[domain.ElementMenuContainer].Visible())
	assert.Empty(t, snap[domain.ElementMenuContainer].Styles)
	assert.True(t, snap[domain.ElementContinuePrompt].Visible())
	assert.Empty(t, snap[domain.ElementContinuePrompt].Styles)
	assert.Equal(t, []string{domain.ClassHidden}, snap[domain.ElementMenuContainer].Classes)
}

func TestLayout(t *testing.T) {
	cases := []struct {
		phase  domain.Phase
		onHome bool
		menu   bool
		prompt bool
		back   bool
		cover  bool
	}{
		{domain.Initializing, true, false, false, false, false},
		{domain.Idle, true, false, true, false, false},
		{domain.Idle, false, false, false, false, false},
		{domain.MenuOpening, true, true, false, false, false},
		{domain.MenuOpen, true, true, false, false, false},
		{domain.MenuClosing, true, false, false, false, false},
		{domain.TransitioningToSubpage, true, false, false, false, true},
		{domain.TransitioningToHome, false, false, false, false, true},
		{domain.Subpage, false, false, false, true, false},
	}
	for _, tc := range cases {
		l := projector.Layout(tc.phase, tc.onHome)
		assert.Equal(t, tc.menu, l[domain.ElementMenuContainer], "menu in %s", tc.phase)
		assert.Equal(t, tc.prompt, l[domain.ElementContinuePrompt], "prompt in %s", tc.phase)
		assert.Equal(t, tc.back, l[domain.ElementBackToHome], "back-to-home in %s", tc.phase)
		assert.Equal(t, tc.cover, l[domain.ElementTransitionCover], "cover in %s", tc.phase)
	}
}

func TestEnforce_SkipsMissingElements(t *testing.T) {
	doc := memory.NewDocument(domain.ElementContinuePrompt)
	assert.NotPanics(t, func() {
		projector.New(doc).Enforce(domain.Idle, true)
	})
	assert.True(t, doc.Snapshot()[domain.ElementContinuePrompt].Visible())
}
