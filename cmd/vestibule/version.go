package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vestibule",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vestibule version %s\n", vestibule.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
