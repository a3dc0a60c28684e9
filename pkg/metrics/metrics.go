// Package metrics exposes the lifecycle of the presentation core as Prometheus metrics.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/registry"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "vestibule"

// Collector records transitions, rejections, sequences and enforcement passes.
// Feed it through Hooks; register it with a prometheus.Registerer.
type Collector struct {
	transitions  *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	sequences    *prometheus.HistogramVec
	stalls       *prometheus.CounterVec
	skippedSteps *prometheus.CounterVec
	enforcements *prometheus.CounterVec
	errors       prometheus.Counter
	phase        *prometheus.GaugeVec

	active   *prometheus.GaugeVec
	registry *registry.Registry
}

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed phase transitions.",
		}, []string{"from", "to", "forced"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transition_rejections_total",
			Help:      "Transition requests dropped without mutation.",
		}, []string{"reason"}),
		sequences: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sequence_duration_seconds",
			Help:      "Time from sequence start to completion.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
		}, []string{"sequence"}),
		stalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_stalls_total",
			Help:      "Sequences completed by their timeout.",
		}, []string{"sequence"}),
		skippedSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_steps_skipped_total",
			Help:      "Sequence steps skipped because of a missing target or an error.",
		}, []string{"sequence", "step"}),
		enforcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcements_total",
			Help:      "Enforcement passes applied to the DOM.",
		}, []string{"phase"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors reported by entry actions, steps and subscribers.",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "1 for the current phase, 0 otherwise.",
		}, []string{"phase"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_animations",
			Help:      "In-flight animation handles per registry group.",
		}, []string{"group"}),
	}
}

// WatchRegistry samples the registry's active handles whenever a hook fires.
// Sampling happens in the hooks, on the goroutine that owns the registry's handles.
func (c *Collector) WatchRegistry(r *registry.Registry) {
	c.registry = r
}

func (c *Collector) sample() {
	if c.registry == nil {
		return
	}
	snap := c.registry.Snapshot()
	for _, g := range []registry.Group{registry.GroupMenu, registry.GroupLogo, registry.GroupDistortion, registry.GroupPrompt, registry.GroupCover} {
		c.active.WithLabelValues(string(g)).Set(float64(snap[g]))
	}
}

// Hooks returns lifecycle hooks that feed the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e domain.TransitionEvent) {
			c.transitions.WithLabelValues(e.Record.From.String(), e.Record.To.String(), strconv.FormatBool(e.Forced)).Inc()
			for _, p := range domain.Phases() {
				v := 0.0
				if p == e.Record.To {
					v = 1
				}
				c.phase.WithLabelValues(p.String()).Set(v)
			}
			c.sample()
		},
		OnReject: func(e domain.RejectEvent) {
			c.rejections.WithLabelValues(string(e.Reason)).Inc()
		},
		OnSequenceStart: func(domain.SequenceEvent) {
			c.sample()
		},
		OnSequenceDone: func(e domain.SequenceEvent) {
			c.sequences.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
			if errors.Is(e.Err, domain.ErrSequenceStall) {
				c.stalls.WithLabelValues(e.Name).Inc()
			}
			c.sample()
		},
		OnStepSkipped: func(sequence, step string, _ error) {
			c.skippedSteps.WithLabelValues(sequence, step).Inc()
		},
		OnEnforce: func(e domain.EnforceEvent) {
			c.enforcements.WithLabelValues(e.Phase.String()).Inc()
		},
		OnError: func(error) {
			c.errors.Inc()
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transitions.Describe(ch)
	c.rejections.Describe(ch)
	c.sequences.Describe(ch)
	c.stalls.Describe(ch)
	c.skippedSteps.Describe(ch)
	c.enforcements.Describe(ch)
	c.errors.Describe(ch)
	c.phase.Describe(ch)
	c.active.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transitions.Collect(ch)
	c.rejections.Collect(ch)
	c.sequences.Collect(ch)
	c.stalls.Collect(ch)
	c.skippedSteps.Collect(ch)
	c.enforcements.Collect(ch)
	c.errors.Collect(ch)
	c.phase.Collect(ch)
	c.active.Collect(ch)
}

var _ prometheus.Collector = (*Collector)(nil)
