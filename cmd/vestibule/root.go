package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "vestibule",
	Short: "Vestibule drives the intro and menu lifecycle of a 3D landing page",
	Long: `Vestibule runs the phase state machine, animation sequences and DOM
enforcement of the intro/menu presentation layer headlessly: interactively
from the keyboard, from scripted scenarios, or behind an HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSlice("debug", nil, "Subsystems to trace (machine, coordinator, projector, registry, scene or *)")
}

// commonOptions reads the persistent flags.
func commonOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetStringSlice("debug")
	return cli.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Debug:      debug,
		Out:        cmd.OutOrStdout(),
		Err:        cmd.ErrOrStderr(),
	}
}
