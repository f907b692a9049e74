package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing search, ingest,
filesystem_read and fetch_get.

By default the server speaks JSON-RPC over stdio. Use --http to listen on
an address with the streamable HTTP transport instead.

Examples:
  localrag mcp
  localrag mcp --http 127.0.0.1:8001`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "listen address for the HTTP transport (empty = stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := a.MCPServer()
	if err != nil {
		return err
	}
	if addr != "" {
		return srv.RunHTTP(cmd.Context(), addr)
	}
	return srv.Run(cmd.Context())
}
