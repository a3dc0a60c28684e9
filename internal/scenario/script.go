// Package scenario replays scripted user and router events against a headless
// app on a manual clock and checks expectations along the way.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/vestibule/pkg/domain"
)

// ErrInvalidScript is returned for scripts that cannot be replayed.
var ErrInvalidScript = errors.New("invalid scenario")

// Script is a named list of steps.
type Script struct {
	Name        string
	Description string
	Steps       []Step
}

// Step is one scripted event. Exactly one action field is set, except for
// Expect which may accompany nothing else.
type Step struct {
	Start         string        `mapstructure:"start"`
	Advance       time.Duration `mapstructure:"advance"`
	Key           string        `mapstructure:"key"`
	Click         bool          `mapstructure:"click"`
	OpenMenu      bool          `mapstructure:"open_menu"`
	CloseMenu     bool          `mapstructure:"close_menu"`
	Transition    string        `mapstructure:"transition"`
	Navigate      string        `mapstructure:"navigate"`
	AfterNavigate bool          `mapstructure:"after_navigate"`
	PageReady     bool          `mapstructure:"page_ready"`
	Enforce       bool          `mapstructure:"enforce"`
	RemoveElement string        `mapstructure:"remove_element"`
	HangScene     *bool         `mapstructure:"hang_scene"`
	SceneReady    *bool         `mapstructure:"scene_ready"`
	Expect        *Expectation  `mapstructure:"expect"`
}

// Expectation asserts on the app and document after the preceding steps.
type Expectation struct {
	Phase                string   `mapstructure:"phase"`
	Route                string   `mapstructure:"route"`
	Visible              []string `mapstructure:"visible"`
	Hidden               []string `mapstructure:"hidden"`
	Interactive          *bool    `mapstructure:"interactive"`
	NavigatingBackToHome *bool    `mapstructure:"navigating_back_to_home"`
	Settled              *bool    `mapstructure:"settled"`
}

// Action names the step's action.
func (s Step) Action() string {
	switch {
	case s.Start != "":
		return "start"
	case s.Advance > 0:
		return "advance"
	case s.Key != "":
		return "key"
	case s.Click:
		return "click"
	case s.OpenMenu:
		return "open_menu"
	case s.CloseMenu:
		return "close_menu"
	case s.Transition != "":
		return "transition"
	case s.Navigate != "":
		return "navigate"
	case s.AfterNavigate:
		return "after_navigate"
	case s.PageReady:
		return "page_ready"
	case s.Enforce:
		return "enforce"
	case s.RemoveElement != "":
		return "remove_element"
	case s.HangScene != nil:
		return "hang_scene"
	case s.SceneReady != nil:
		return "scene_ready"
	case s.Expect != nil:
		return "expect"
	}
	return ""
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Start != "", s.Advance > 0, s.Key != "", s.Click, s.OpenMenu, s.CloseMenu,
		s.Transition != "", s.Navigate != "", s.AfterNavigate, s.PageReady, s.Enforce,
		s.RemoveElement != "", s.HangScene != nil, s.SceneReady != nil, s.Expect != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

type rawScript struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Steps       []map[string]any `yaml:"steps"`
}

// Parse decodes a YAML scenario.
func Parse(data []byte) (Script, error) {
	var raw rawScript
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	script := Script{Name: raw.Name, Description: raw.Description}
	for i, m := range raw.Steps {
		step, err := decodeStep(m)
		if err != nil {
			return Script{}, fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
		}
		script.Steps = append(script.Steps, step)
	}
	if err := script.Validate(); err != nil {
		return Script{}, err
	}
	return script, nil
}

// Load reads and parses a scenario file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	script, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}

func decodeStep(m map[string]any) (Step, error) {
	var step Step
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		Result:           &step,
	})
	if err != nil {
		return step, err
	}
	// Action keys without a value ("- page_ready:") are flags.
	for k, v := range m {
		if v == nil {
			m[k] = true
		}
	}
	if err := dec.Decode(m); err != nil {
		return step, err
	}
	return step, nil
}

// Validate checks that every step carries exactly one action and that names
// refer to known phases and elements.
func (s Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	known := make(map[string]bool)
	for _, id := range domain.Elements() {
		known[string(id)] = true
	}
	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return fmt.Errorf("%w: step %d has %d actions, want 1", ErrInvalidScript, i+1, n)
		}
		if step.Transition != "" {
			if _, err := domain.ParsePhase(step.Transition); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
			}
		}
		if step.RemoveElement != "" && !known[step.RemoveElement] {
			return fmt.Errorf("%w: step %d: unknown element %q", ErrInvalidScript, i+1, step.RemoveElement)
		}
		if e := step.Expect; e != nil {
			if e.Phase != "" {
				if _, err := domain.ParsePhase(e.Phase); err != nil {
					return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
				}
			}
			for _, id := range append(append([]string(nil), e.Visible...), e.Hidden...) {
				if !known[id] {
					return fmt.Errorf("%w: step %d: unknown element %q", ErrInvalidScript, i+1, id)
				}
			}
		}
	}
	return nil
}
