package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/vestibule/internal/config"
	"github.com/aretw0/vestibule/internal/presentation/tui"
	"github.com/aretw0/vestibule/internal/scenario"
)

// ErrScenarioFailed is returned when at least one expectation did not hold.
var ErrScenarioFailed = errors.New("scenario failed")

// SimulateOptions configures Simulate.
type SimulateOptions struct {
	Options
	// Paths are scenario files or directories of *.yaml scenarios.
	Paths []string
	Plain bool
	Width int
}

// Simulate replays scenarios on a manual clock and renders their reports.
func Simulate(opts SimulateOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := createLogger(cfg, opts.errOut())

	files, err := expandScenarios(opts.Paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenarios found in %v", opts.Paths)
	}

	render := tui.NewRenderer(opts.Width)
	if opts.Plain {
		render = tui.PlainRenderer
	}

	failed := 0
	for _, path := range files {
		report, err := replay(cfg, path, scenario.WithLogger(logger))
		if err != nil {
			return err
		}
		out, err := render(report.Markdown())
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		fmt.Fprint(opts.out(), out)
		if !report.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrScenarioFailed, failed, len(files))
	}
	printSystemMessage(opts.out(), "%d scenario(s) passed.", len(files))
	return nil
}

func replay(cfg config.Config, path string, opts ...scenario.Option) (*scenario.Report, error) {
	script, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = filepath.Base(path)
	}
	opts = append([]scenario.Option{
		scenario.WithAppOptions(cfg.AppOptions()...),
		scenario.WithSceneDurations(cfg.Scene),
	}, opts...)
	return scenario.Run(script, opts...)
}

func expandScenarios(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)
	return files, nil
}
