package cli

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and JSON API",
	Long: `Starts the HTTP server. The documents directory is ingested first
unless documents.ingest_on_start is false. With documents.watch the index
is rebuilt whenever the directory changes, and with mcp.addr the MCP
server is also exposed over HTTP.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(cmd.Context())
}
