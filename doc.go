/*
Package vestibule is the presentation core of a 3D intro and menu: a finite-state
machine that owns which phase the UI is in, serializes competing animation requests,
and repairs the page after a navigation interrupts animations in flight.

# Concept

The core never draws anything. The 3D renderer, the DOM and the tween engine are
collaborators reached through the interfaces in pkg/ports. The machine decides the
phase; the coordinator runs the choreography for it; the projector pulls the DOM
back to what the phase implies whenever an animation was cut short.

	Initializing -> Idle <-> MenuOpening -> MenuOpen -> MenuClosing -> Idle
	any -> TransitioningToSubpage -> Subpage
	any -> TransitioningToHome -> Idle

# Key Features

  - Debounced transitions: requests inside the quiet interval are dropped without side effects.
  - Clear-before-start: a sequence pauses whatever animated its groups before it begins.
  - Fan-in completion with a timeout, so a stalled asset never wedges the menu.
  - Idempotent enforcement of the per-phase layout.

# Usage

All calls must happen on one goroutine, the one that drives the clock. Tests and
simulations use clock.Manual; interactive hosts use internal/loop.

	clk := clock.NewManual(time.Now())
	app, err := vestibule.New(
		vestibule.WithClock(clk),
		vestibule.WithScene(memory.NewScene(clk)),
	)
	if err != nil {
		log.Fatal(err)
	}
	_ = app.Start("/")
	clk.Advance(time.Second)   // boot: Idle
	app.OpenMenu()             // MenuOpening
	clk.Advance(2 * time.Second) // MenuOpen

Navigation is reported through the three route hooks:

	app.OnBeforeRouteChange("/photos") // TransitioningToSubpage
	app.OnAfterRouteChange()            // Subpage
	app.OnPageReady()
*/
package vestibule
