package ports

import (
	"testing"

	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDOMContract runs a suite of tests to verify that a DOM implementation
// adheres to the interface contract. newDOM must return a document containing
// every element of domain.Elements().
func RunDOMContract(t *testing.T, newDOM func() DOM) {
	t.Run("Lookup", func(t *testing.T) {
		dom := newDOM()
		for _, id := range domain.Elements() {
			el, ok := dom.Element(id)
			require.True(t, ok, "element %s should exist", id)
			assert.Equal(t, id, el.ID())
		}
		_, ok := dom.Element("no-such-element")
		assert.False(t, ok)
	})

	t.Run("Classes", func(t *testing.T) {
		el, _ := newDOM().Element(domain.ElementMenuContainer)
		SetVisible(el, true)
		assert.True(t, IsVisible(el))
		assert.False(t, el.HasClass(domain.ClassHidden))

		SetVisible(el, false)
		assert.False(t, IsVisible(el))
		assert.True(t, el.HasClass(domain.ClassHidden))

		el.AddClass("extra")
		el.AddClass("extra")
		el.RemoveClass("extra")
		assert.False(t, el.HasClass("extra"), "classes behave as a set")
	})

	t.Run("Inline Styles", func(t *testing.T) {
		el, _ := newDOM().Element(domain.ElementContinuePrompt)
		el.SetStyle(domain.StyleOpacity, "0.4")
		v, ok := el.Style(domain.StyleOpacity)
		require.True(t, ok)
		assert.Equal(t, "0.4", v)

		el.ClearInlineStyles()
		_, ok = el.Style(domain.StyleOpacity)
		assert.False(t, ok)
	})
}
