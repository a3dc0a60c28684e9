package scenario

import (
	"fmt"
	"strings"
	"time"
)

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Scenario: %s\n\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(r.Description))
	}

	b.WriteString("| t | event | detail |\n|---|---|---|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", seconds(e.At), e.Kind, strings.ReplaceAll(e.Detail, "|", `\|`))
	}

	fmt.Fprintf(&b, "\nFinal phase **%s** on `%s` after %s.\n\n", r.Final.Phase, r.Final.Route, seconds(r.Elapsed))
	if r.Passed() {
		b.WriteString("**Result: PASS**\n")
		return b.String()
	}
	fmt.Fprintf(&b, "**Result: FAIL** (%d)\n\n", len(r.Failures))
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "- step %d: %s\n", f.Step, f.Message)
	}
	return b.String()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
