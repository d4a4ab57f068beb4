package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/mcp"
)

var mcpServerURL string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the summary history to MCP clients over stdio",
	Long: `Runs an MCP server on stdin/stdout exposing the stored daily summaries
as tools and resources. By default rows are read from PostgreSQL; with
--server they are read from a running "vitalsync serve" instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpServerURL, "server", "", "Base URL of a vitalsync HTTP server to read from")
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var ds mcp.DataSource
	if mcpServerURL != "" {
		ds = mcp.NewHTTPClient(mcpServerURL)
		a.log.Info("mcp reading from server", "url", mcpServerURL)
	} else {
		if err := requireDatabase(a.cfg, "mcp"); err != nil {
			return err
		}
		db, err := a.database(cmd.Context())
		if err != nil {
			return err
		}
		ds = db
	}
	return server.ServeStdio(mcp.New(ds, Version, a.log))
}
