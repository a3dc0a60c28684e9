package vestibule_test

import (
	"fmt"
	"log"
	"time"

	"github.com/aretw0/vestibule"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
)

// ExampleNew walks the intro through boot, menu and a navigation on a manual clock.
func ExampleNew() {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	app, err := vestibule.New(
		vestibule.WithClock(clk),
		vestibule.WithScene(memory.NewScene(clk)),
	)
	if err != nil {
		log.Fatal(err)
	}

	_, _ = app.Subscribe(domain.AnyPhase, domain.AnyPhase, func(rec domain.TransitionRecord) {
		fmt.Printf("%s -> %s\n", rec.From, rec.To)
	})

	_ = app.Start("/")
	clk.Advance(2 * time.Second)

	app.OpenMenu()
	clk.Advance(2 * time.Second)

	_ = app.OnBeforeRouteChange("/photos")
	_ = app.OnAfterRouteChange()
	_ = app.OnPageReady()
	clk.Advance(time.Second)

	fmt.Println("interactive:", app.CanInteract())
	// Output:
	// Initializing -> Idle
	// Idle -> MenuOpening
	// MenuOpening -> MenuOpen
	// MenuOpen -> TransitioningToSubpage
	// TransitioningToSubpage -> Subpage
	// interactive: false
}
