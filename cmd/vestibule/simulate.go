package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml|dir>...",
	Short: "Replay scenarios on a simulated clock",
	Long: `Replays scripted input and router events against a headless app and checks
the expectations of each scenario. Exits non-zero if any expectation fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		width, _ := cmd.Flags().GetInt("width")
		return cli.Simulate(cli.SimulateOptions{
			Options: commonOptions(cmd),
			Paths:   args,
			Plain:   plain,
			Width:   width,
		})
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("plain", false, "Print the markdown report without styling")
	simulateCmd.Flags().Int("width", 100, "Wrap width of the rendered report")
}
