package coordinator

import (
	"strconv"
	"time"

	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/ports"
	"github.com/aretw0/vestibule/pkg/registry"
)

// Names of the built-in sequences.
const (
	SequenceMenuOpen  = "menuOpenSequence"
	SequenceMenuClose = "menuCloseSequence"
	SequencePageLeave = "pageLeaveSequence"
	SequencePageEnter = "pageEnterSequence"
)

// Timings configures the built-in sequences.
type Timings struct {
	PromptFade     time.Duration `yaml:"prompt_fade" env:"PROMPT_FADE"`
	MenuDelay      time.Duration `yaml:"menu_delay" env:"MENU_DELAY"`
	MenuFade       time.Duration `yaml:"menu_fade" env:"MENU_FADE"`
	MenuItemsDelay time.Duration `yaml:"menu_items_delay" env:"MENU_ITEMS_DELAY"`
	MenuItemsFade  time.Duration `yaml:"menu_items_fade" env:"MENU_ITEMS_FADE"`
	Distortion     time.Duration `yaml:"distortion" env:"DISTORTION"`
	DistortionPeak float64       `yaml:"distortion_peak" env:"DISTORTION_PEAK"`
	CoverFade      time.Duration `yaml:"cover_fade" env:"COVER_FADE"`
	LogoPageLeave  time.Duration `yaml:"logo_page_leave" env:"LOGO_PAGE_LEAVE"`
	LogoPageEnter  time.Duration `yaml:"logo_page_enter" env:"LOGO_PAGE_ENTER"`
}

// DefaultTimings are the production timings of the intro.
var DefaultTimings = Timings{
	PromptFade:     300 * time.Millisecond,
	MenuDelay:      150 * time.Millisecond,
	MenuFade:       400 * time.Millisecond,
	MenuItemsDelay: 200 * time.Millisecond,
	MenuItemsFade:  500 * time.Millisecond,
	Distortion:     600 * time.Millisecond,
	DistortionPeak: 0.35,
	CoverFade:      500 * time.Millisecond,
	LogoPageLeave:  600 * time.Millisecond,
	LogoPageEnter:  800 * time.Millisecond,
}

// BuiltinSequences returns the menu and page sequences laid out with t.
func BuiltinSequences(t Timings) []Sequence {
	return []Sequence{
		menuOpenSequence(t),
		menuCloseSequence(t),
		pageLeaveSequence(),
		pageEnterSequence(),
	}
}

func menuOpenSequence(t Timings) Sequence {
	return Sequence{
		Name: SequenceMenuOpen,
		Steps: []Step{
			{
				Name:  "prompt-hide",
				Group: registry.GroupPrompt,
				Run:   fadeOut(domain.ElementContinuePrompt, func(t Timings) time.Duration { return t.PromptFade }),
			},
			{
				Name:  "logo-open",
				Group: registry.GroupLogo,
				Run: func(s *StepContext) error {
					scene, err := s.Logo()
					if err != nil {
						return err
					}
					h := scene.AnimateLogoOpen(s.Done)
					if h == nil {
						return domain.ErrMissingTarget
					}
					s.Track(h)
					return nil
				},
			},
			{
				Name:  "distortion-pulse",
				Group: registry.GroupDistortion,
				Run:   distortion(func(t Timings) float64 { return t.DistortionPeak }),
			},
			{
				Name:   "menu-reveal",
				Group:  registry.GroupMenu,
				Offset: t.MenuDelay,
				Run:    fadeIn(domain.ElementMenuContainer, func(t Timings) time.Duration { return t.MenuFade }),
			},
			{
				Name:   "menu-items-reveal",
				Group:  registry.GroupMenu,
				Offset: t.MenuItemsDelay,
				Run:    fadeIn(domain.ElementMenuItems, func(t Timings) time.Duration { return t.MenuItemsFade }),
			},
		},
	}
}

func menuCloseSequence(t Timings) Sequence {
	return Sequence{
		Name: SequenceMenuClose,
		Steps: []Step{
			{
				Name:  "menu-items-hide",
				Group: registry.GroupMenu,
				Run:   fadeOut(domain.ElementMenuItems, func(t Timings) time.Duration { return t.MenuItemsFade / 2 }),
			},
			{
				Name:   "menu-hide",
				Group:  registry.GroupMenu,
				Offset: t.MenuDelay,
				Run:    fadeOut(domain.ElementMenuContainer, func(t Timings) time.Duration { return t.MenuFade }),
			},
			{
				Name:  "logo-close",
				Group: registry.GroupLogo,
				Run: func(s *StepContext) error {
					scene, err := s.Logo()
					if err != nil {
						return err
					}
					h := scene.AnimateLogoClose(s.Done)
					if h == nil {
						return domain.ErrMissingTarget
					}
					s.Track(h)
					return nil
				},
			},
			{
				Name:  "distortion-release",
				Group: registry.GroupDistortion,
				Run:   distortion(func(Timings) float64 { return 0 }),
			},
		},
	}
}

func pageLeaveSequence() Sequence {
	return Sequence{
		Name: SequencePageLeave,
		Steps: []Step{
			{
				Name:  "logo-page-leave",
				Group: registry.GroupLogo,
				Run: func(s *StepContext) error {
					scene, err := s.Logo()
					if err != nil {
						return err
					}
					s.Track(scene.AnimateLogoPageLeave())
					s.DoneAfter(s.Timings().LogoPageLeave)
					return nil
				},
			},
			{
				Name:  "distortion-spike",
				Group: registry.GroupDistortion,
				Run:   distortion(func(t Timings) float64 { return t.DistortionPeak }),
			},
			{
				Name:  "cover-fade-in",
				Group: registry.GroupCover,
				Run:   fadeIn(domain.ElementTransitionCover, func(t Timings) time.Duration { return t.CoverFade }),
			},
		},
	}
}

func pageEnterSequence() Sequence {
	return Sequence{
		Name: SequencePageEnter,
		Steps: []Step{
			{
				Name:  "cover-fade-out",
				Group: registry.GroupCover,
				Run:   fadeOut(domain.ElementTransitionCover, func(t Timings) time.Duration { return t.CoverFade }),
			},
			{
				Name:  "logo-reset",
				Group: registry.GroupLogo,
				Run: func(s *StepContext) error {
					if !s.Context().ToHome {
						s.Done()
						return nil
					}
					scene, err := s.Logo()
					if err != nil {
						return err
					}
					scene.ResetToInitialPose()
					s.Done()
					return nil
				},
			},
			{
				Name:          "logo-page-enter",
				Group:         registry.GroupLogo,
				AfterPrevious: true,
				Run: func(s *StepContext) error {
					if !s.Context().ToHome {
						s.Done()
						return nil
					}
					scene, err := s.Logo()
					if err != nil {
						return err
					}
					s.Track(scene.AnimateLogoPageEnter())
					s.DoneAfter(s.Timings().LogoPageEnter)
					return nil
				},
			},
			{
				Name:  "distortion-settle",
				Group: registry.GroupDistortion,
				Run:   distortion(func(Timings) float64 { return 0 }),
			},
		},
	}
}

// fadeIn makes an element visible and tweens its opacity from 0 to 1.
func fadeIn(id domain.ElementID, duration func(Timings) time.Duration) StepFunc {
	return func(s *StepContext) error {
		el, err := s.Element(id)
		if err != nil {
			return err
		}
		ports.SetVisible(el, true)
		el.SetStyle(domain.StyleOpacity, "0")
		s.Tween(el, domain.StyleOpacity, 1, duration(s.Timings()), nil)
		return nil
	}
}

// fadeOut tweens an element's opacity to 0 and hides it at the end.
func fadeOut(id domain.ElementID, duration func(Timings) time.Duration) StepFunc {
	return func(s *StepContext) error {
		el, err := s.Element(id)
		if err != nil {
			return err
		}
		s.Tween(el, domain.StyleOpacity, 0, duration(s.Timings()), func() {
			ports.SetVisible(el, false)
		})
		return nil
	}
}

// distortion tweens the post-processing amount; the step lasts the tween duration.
func distortion(amount func(Timings) float64) StepFunc {
	return func(s *StepContext) error {
		scene, err := s.Scene()
		if err != nil {
			return err
		}
		d := s.Timings().Distortion
		s.Track(scene.SetDistortion(amount(s.Timings()), d))
		s.DoneAfter(d)
		return nil
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
