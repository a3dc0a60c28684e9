package clock_test

import (
	"testing"
	"time"

	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	c := clock.NewManual(epoch)
	var order []string
	c.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(50 * time.Millisecond)
	assert.Empty(t, order)

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(1050*time.Millisecond), c.Now())
}

func TestManual_NestedTimersInsideWindow(t *testing.T) {
	c := clock.NewManual(epoch)
	var at []time.Duration
	c.AfterFunc(100*time.Millisecond, func() {
		at = append(at, c.Now().Sub(epoch))
		c.AfterFunc(100*time.Millisecond, func() {
			at = append(at, c.Now().Sub(epoch))
		})
	})

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, at)
	assert.Zero(t, c.Pending())
}

func TestManual_Stop(t *testing.T) {
	c := clock.NewManual(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManual_ZeroDelayFiresOnAdvanceZero(t *testing.T) {
	c := clock.NewManual(epoch)
	fired := false
	c.AfterFunc(0, func() { fired = true })
	c.Advance(0)
	assert.True(t, fired)
}
