package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/vestibule"
	"github.com/aretw0/vestibule/internal/loop"
	"github.com/aretw0/vestibule/internal/presentation/tui"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/domain"
)

// ErrNotTerminal is returned by RunInteractive when stdin is not a terminal.
var ErrNotTerminal = errors.New("interactive mode needs a terminal; use simulate for scripted runs")

// Delay between the route change and the page-ready event of the simulated router.
const pageReadyDelay = 50 * time.Millisecond

const keyHelp = `keys: space/enter open menu, esc close, c logo click,
      p /projects, a /about, h home, e enforce, s status, q quit`

// RunInteractive drives a headless app from the keyboard in real time and
// prints every transition with the resulting DOM state.
func RunInteractive(opts Options) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	out := rawWriter{w: opts.out()}
	logger := createLogger(cfg, rawWriter{w: opts.errOut()})

	tui.PrintBanner(opts.out(), vestibule.Version)
	fmt.Fprintln(opts.out(), keyHelp)
	fmt.Fprintln(opts.out())

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	lp := loop.New(loop.WithLogger(logger))
	doc := memory.NewDocument()
	scene := memory.NewScene(lp, memory.WithSceneDurations(cfg.Scene))
	app, err := vestibule.New(append(cfg.AppOptions(),
		vestibule.WithClock(lp),
		vestibule.WithDOM(doc),
		vestibule.WithScene(scene),
		vestibule.WithLogger(logger),
		vestibule.WithLifecycleHooks(debugHooks(logger)),
	)...)
	if err != nil {
		return err
	}

	status := tui.NewStatus(termenv.NewOutput(opts.out()))
	showStatus := func() {
		fmt.Fprintf(out, "    %s\n", status.Line(app.Snapshot(), doc.Snapshot()))
	}
	if _, err := app.Subscribe(domain.AnyPhase, domain.AnyPhase, func(rec domain.TransitionRecord) {
		fmt.Fprintf(out, "%s %s\n", rec.Timestamp.Format("15:04:05.000"), status.Transition(rec))
		showStatus()
	}); err != nil {
		return err
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	go func() {
		if err := lp.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("loop stopped", "err", err)
		}
	}()
	lp.Post(func() {
		if err := app.Start(cfg.StartRoute); err != nil {
			logger.Error("start failed", "err", err)
		}
	})

	keys := make(chan byte)
	go readKeys(os.Stdin, keys)

	router := &router{app: app, loop: lp, logger: logger, delay: cfg.Timings.LogoPageLeave}
	for {
		select {
		case <-sigCtx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				return nil
			}
			switch b {
			case 'q', 3, 4: // q, Ctrl-C, Ctrl-D
				fmt.Fprintln(out)
				printSystemMessage(out, "Stopped in %s.", app.Phase())
				return nil
			case ' ':
				lp.Post(func() { app.HandleKey(" ") })
			case '\r', '\n':
				lp.Post(func() { app.HandleKey("enter") })
			case 0x1b:
				lp.Post(func() { app.HandleKey("escape") })
			case 'c':
				lp.Post(func() { app.HandleLogoClick() })
			case 'p':
				lp.Post(func() { router.navigate("/projects") })
			case 'a':
				lp.Post(func() { router.navigate("/about") })
			case 'h':
				lp.Post(func() { router.navigate("/") })
			case 'e':
				lp.Post(func() {
					if !app.Enforce() {
						printSystemMessage(out, "enforce skipped (rate limited)")
					}
				})
			case 's':
				lp.Post(showStatus)
			}
		}
	}
}

func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			keys <- b
		}
		if err != nil {
			return
		}
	}
}

// router plays the part of a client-side router: the route changes after the
// page-leave animation and the page reports ready shortly after.
type router struct {
	app    *vestibule.App
	loop   *loop.Loop
	logger *slog.Logger
	delay  time.Duration
}

func (r *router) navigate(route string) {
	if err := r.app.OnBeforeRouteChange(route); err != nil {
		r.logger.Warn("navigation start failed", "route", route, "err", err)
	}
	r.loop.AfterFunc(r.delay, func() {
		if err := r.app.OnAfterRouteChange(); err != nil {
			r.logger.Warn("route change failed", "route", route, "err", err)
		}
		r.loop.AfterFunc(pageReadyDelay, func() {
			if err := r.app.OnPageReady(); err != nil {
				r.logger.Warn("page ready failed", "route", route, "err", err)
			}
		})
	})
}
