package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vestibule/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app over HTTP",
	Long: `Runs a headless app in real time behind a JSON API with a server-sent
event stream of transitions, Prometheus metrics and an optional Redis recorder.
With --mcp the same commands are exposed as MCP tools, mounted on /mcp (http)
or served on Stdin/Stdout (stdio).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		transport, _ := cmd.Flags().GetString("mcp")
		return cli.Serve(cli.ServeOptions{Options: commonOptions(cmd), Addr: addr, MCP: transport})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides http.addr)")
	serveCmd.Flags().String("mcp", "", "Expose MCP tools over a transport: http or stdio")
}
