package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the intro interactively from the keyboard",
	Long: `Starts a headless app in real time. Space opens the menu, Esc closes it,
p/a/h navigate and every transition is printed with the resulting DOM state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunInteractive(commonOptions(cmd))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
