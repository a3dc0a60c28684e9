// Package graph renders the phase lifecycle as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/vestibule/pkg/domain"
)

// Edge is a transition of the lifecycle, labelled with what triggers it.
type Edge struct {
	From, To domain.Phase
	Trigger  string
	// Forced edges are navigation-driven and bypass the quiet interval.
	Forced bool
}

// Lifecycle lists the transitions the machine performs on its own or in
// response to input and router events.
func Lifecycle() []Edge {
	edges := []Edge{
		{From: domain.Initializing, To: domain.Idle, Trigger: "boot on home"},
		{From: domain.Initializing, To: domain.Subpage, Trigger: "boot off home"},
		{From: domain.Idle, To: domain.MenuOpening, Trigger: "space / logo click"},
		{From: domain.MenuOpening, To: domain.MenuOpen, Trigger: "menuOpenSequence done"},
		{From: domain.MenuOpen, To: domain.MenuClosing, Trigger: "escape / logo click"},
		{From: domain.MenuClosing, To: domain.Idle, Trigger: "menuCloseSequence done"},
		{From: domain.TransitioningToSubpage, To: domain.Subpage, Trigger: "route changed", Forced: true},
		{From: domain.TransitioningToHome, To: domain.Idle, Trigger: "route changed", Forced: true},
	}
	for _, p := range []domain.Phase{domain.Idle, domain.MenuOpening, domain.MenuOpen, domain.MenuClosing, domain.Subpage} {
		edges = append(edges, Edge{From: p, To: domain.TransitioningToSubpage, Trigger: "navigate", Forced: true})
	}
	edges = append(edges, Edge{From: domain.Subpage, To: domain.TransitioningToHome, Trigger: "navigate home", Forced: true})
	return edges
}

// Overlay highlights the phases a run went through.
type Overlay struct {
	Visited []domain.Phase
	Current domain.Phase
	// Taken holds transitions that actually happened, keyed "From>To".
	Taken map[string]bool
}

// TakenKey returns the Overlay.Taken key of a transition.
func TakenKey(from, to domain.Phase) string {
	return from.String() + ">" + to.String()
}

// GenerateMermaid produces a flowchart of edges.
// Settled phases are rounded boxes, transitional ones are stadiums and
// Initializing is a circle. Forced edges are dotted.
func GenerateMermaid(edges []Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, p := range domain.Phases() {
		opener, closer := "(", ")"
		switch {
		case p == domain.Initializing:
			opener, closer = "((", "))"
		case p.IsTransitional():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(p), opener, p, closer)
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Forced {
			arrow = "-.->"
		}
		if e.Trigger != "" {
			label := strings.ReplaceAll(e.Trigger, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.Forced {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(e.From), arrow, nodeID(e.To))
	}

	if overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[domain.Phase]bool)
	for _, p := range overlay.Visited {
		if !p.Valid() || seen[p] {
			continue
		}
		seen[p] = true
		fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(p))
	}
	if overlay.Current.Valid() {
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Current))
	}

	// Mermaid addresses edges by declaration index.
	for i, e := range edges {
		if overlay.Taken[TakenKey(e.From, e.To)] {
			fmt.Fprintf(&sb, "    linkStyle %d stroke:#01579b,stroke-width:3px;\n", i)
		}
	}
	return sb.String()
}

func nodeID(p domain.Phase) string {
	return strings.ToLower(p.String())
}
