package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph [scenario.yaml]",
	Short: "Export the phase lifecycle as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the phases and their triggers.
With a scenario, the phases and transitions it went through are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.GraphOptions{Options: commonOptions(cmd)}
		if len(args) == 1 {
			opts.Scenario = args[0]
		}
		return cli.Graph(opts)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
