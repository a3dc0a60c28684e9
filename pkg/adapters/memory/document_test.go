package memory_test

import (
	"testing"
	"time"

	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDocument_Contract(t *testing.T) {
	ports.RunDOMContract(t, func() ports.DOM { return memory.NewDocument() })
}

func TestDocument_RemoveAndSnapshot(t *testing.T) {
	doc := memory.NewDocument()
	el, ok := doc.Element(domain.ElementMenuContainer)
	require.True(t, ok)
	el.AddClass(domain.ClassVisible)
	el.SetStyle(domain.StyleOpacity, "1")

	snap := doc.Snapshot()
	assert.True(t, snap[domain.ElementMenuContainer].Visible())
	assert.Equal(t, "1", snap[domain.ElementMenuContainer].Styles[domain.StyleOpacity])

	// Snapshots are copies.
	el.ClearInlineStyles()
	assert.Equal(t, "1", snap[domain.ElementMenuContainer].Styles[domain.StyleOpacity])

	assert.True(t, doc.Remove(domain.ElementMenuContainer))
	_, ok = doc.Element(domain.ElementMenuContainer)
	assert.False(t, ok)
	assert.False(t, doc.Remove(domain.ElementMenuContainer))
}

func TestAnimator_CompletesAndPausesInPlace(t *testing.T) {
	c := clock.NewManual(epoch)
	doc := memory.NewDocument()
	el, _ := doc.Element(domain.ElementContinuePrompt)
	anim := memory.NewAnimator(c)

	done := 0
	h := anim.Tween(el, domain.StyleOpacity, 0, time.Second, func() { done++ })
	c.Advance(250 * time.Millisecond)
	assert.True(t, h.Active())

	h.Pause()
	v, _ := el.Style(domain.StyleOpacity)
	assert.Equal(t, "0.75", v, "pause keeps the last evaluated value")

	c.Advance(2 * time.Second)
	assert.Zero(t, done, "paused tweens never complete")
	v, _ = el.Style(domain.StyleOpacity)
	assert.Equal(t, "0.75", v)

	h2 := anim.Tween(el, domain.StyleOpacity, 1, 500*time.Millisecond, func() { done++ })
	c.Advance(500 * time.Millisecond)
	assert.False(t, h2.Active())
	assert.Equal(t, 1, done)
	v, _ = el.Style(domain.StyleOpacity)
	assert.Equal(t, "1", v)
}
