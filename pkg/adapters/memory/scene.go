package memory

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/vestibule/internal/logging"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/ports"
)

// SceneDurations configures how long each headless logo animation takes.
type SceneDurations struct {
	Open      time.Duration `yaml:"open" env:"OPEN"`
	Close     time.Duration `yaml:"close" env:"CLOSE"`
	PageLeave time.Duration `yaml:"page_leave" env:"PAGE_LEAVE"`
	PageEnter time.Duration `yaml:"page_enter" env:"PAGE_ENTER"`
}

// DefaultSceneDurations mirrors the timings of the rendered logo.
var DefaultSceneDurations = SceneDurations{
	Open:      1200 * time.Millisecond,
	Close:     900 * time.Millisecond,
	PageLeave: 600 * time.Millisecond,
	PageEnter: 800 * time.Millisecond,
}

// Scene implements ports.SceneBridge without a renderer.
// It keeps the logo's openness, page offset and distortion as plain values so
// callers can observe what a real scene would display.
type Scene struct {
	mu        sync.Mutex
	clock     clock.Clock
	durations SceneDurations
	ready     bool
	logo      bool
	hang      bool
	logger    *slog.Logger

	openness   float64
	pageOffset float64
	distortion float64
	calls      []string
}

// SceneOption configures the Scene.
type SceneOption func(*Scene)

// WithSceneDurations overrides the animation durations.
func WithSceneDurations(d SceneDurations) SceneOption {
	return func(s *Scene) {
		s.durations = d
	}
}

// WithoutLogo creates the scene with no logo loaded.
func WithoutLogo() SceneOption {
	return func(s *Scene) {
		s.logo = false
	}
}

// WithSceneLogger configures a logger for scene calls.
func WithSceneLogger(logger *slog.Logger) SceneOption {
	return func(s *Scene) {
		s.logger = logger
	}
}

// NewScene creates a ready headless scene with a loaded logo.
func NewScene(c clock.Clock, opts ...SceneOption) *Scene {
	s := &Scene{
		clock:     c,
		durations: DefaultSceneDurations,
		ready:     true,
		logo:      true,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger replaces the scene logger.
func (s *Scene) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

type logoRef string

func (r logoRef) Name() string { return string(r) }

// SetReady toggles 3D readiness.
func (s *Scene) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetLogo toggles whether the logo object is loaded.
func (s *Scene) SetLogo(loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logo = loaded
}

// SetHang makes subsequent logo open/close animations never signal completion.
func (s *Scene) SetHang(hang bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hang = hang
}

func (s *Scene) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Scene) LogoHandle() (ports.LogoRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || !s.logo {
		return nil, false
	}
	return logoRef("logo"), true
}

func (s *Scene) AnimateLogoOpen(onDone func()) ports.Handle {
	return s.animate("logo-open", &s.openness, 1, s.durations.Open, onDone, true)
}

func (s *Scene) AnimateLogoClose(onDone func()) ports.Handle {
	return s.animate("logo-close", &s.openness, 0, s.durations.Close, onDone, true)
}

func (s *Scene) AnimateLogoPageLeave() ports.Handle {
	return s.animate("logo-page-leave", &s.pageOffset, 1, s.durations.PageLeave, nil, false)
}

func (s *Scene) AnimateLogoPageEnter() ports.Handle {
	return s.animate("logo-page-enter", &s.pageOffset, 0, s.durations.PageEnter, nil, false)
}

func (s *Scene) SetDistortion(amount float64, d time.Duration) ports.Handle {
	return s.animate(fmt.Sprintf("distortion:%.2f", amount), &s.distortion, amount, d, nil, false)
}

func (s *Scene) ResetToInitialPose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "reset-pose")
	s.openness = 0
	s.pageOffset = 0
	s.logger.Debug("scene reset to initial pose")
}

func (s *Scene) animate(name string, field *float64, to float64, d time.Duration, onDone func(), needsLogo bool) ports.Handle {
	s.mu.Lock()
	if !s.ready || (needsLogo && !s.logo) {
		ready := s.ready
		s.mu.Unlock()
		s.logger.Debug("scene call ignored", "call", name, "ready", ready)
		return nil
	}
	s.calls = append(s.calls, name)
	from := *field
	hang := s.hang && onDone != nil
	s.mu.Unlock()

	s.logger.Debug("scene animation started", "call", name, "duration", d)
	set := func(v float64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		*field = v
	}
	t := startTween(s.clock, from, to, d, set, onDone)
	if hang {
		t.hang()
	}
	return t
}

// Calls returns the scene calls in invocation order.
func (s *Scene) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// SceneState is a copy of the headless scene values.
type SceneState struct {
	Openness   float64 `json:"openness"`
	PageOffset float64 `json:"page_offset"`
	Distortion float64 `json:"distortion"`
}

// State returns the current scene values.
func (s *Scene) State() SceneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SceneState{Openness: s.openness, PageOffset: s.pageOffset, Distortion: s.distortion}
}
