package cli

import (
	"fmt"

	"github.com/aretw0/vestibule/internal/presentation/graph"
	"github.com/aretw0/vestibule/internal/scenario"
	"github.com/aretw0/vestibule/pkg/domain"
)

// GraphOptions configures Graph.
type GraphOptions struct {
	Options
	// Scenario, when set, is replayed and its path is highlighted.
	Scenario string
}

// Graph prints the phase lifecycle as a Mermaid flowchart.
func Graph(opts GraphOptions) error {
	var overlay *graph.Overlay
	if opts.Scenario != "" {
		cfg, err := opts.load()
		if err != nil {
			return err
		}
		report, err := replay(cfg, opts.Scenario, scenario.WithLogger(createLogger(cfg, opts.errOut())))
		if err != nil {
			return err
		}
		overlay = overlayFor(report)
	}
	fmt.Fprint(opts.out(), graph.GenerateMermaid(graph.Lifecycle(), overlay))
	return nil
}

func overlayFor(report *scenario.Report) *graph.Overlay {
	o := &graph.Overlay{
		Visited: []domain.Phase{domain.Initializing},
		Current: report.Final.Phase,
		Taken:   make(map[string]bool),
	}
	for _, rec := range report.Transitions {
		o.Visited = append(o.Visited, rec.To)
		o.Taken[graph.TakenKey(rec.From, rec.To)] = true
	}
	return o
}
