package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration after applying the file, VESTIBULE_ environment variables and flags.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintConfig(commonOptions(cmd))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
