// Package memory provides headless in-memory implementations of the DOM,
// the tween animator and the 3D scene bridge.
//
// They are used by the scenario simulator, the interactive terminal session and
// tests. All animation progress is derived from a clock.Clock, so a Manual clock
// makes every run deterministic.
package memory
