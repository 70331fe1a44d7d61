package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pmcp "github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start a read-only MCP server over the admin dashboard",
		Long: `Start a Model Context Protocol (MCP) server that exposes the admin audit trail,
dashboard statistics and the moderation queue as read-only tools.

In stdio mode the server speaks JSON-RPC over stdin/stdout, for MCP clients that
launch puzzlr as a subprocess. In HTTP mode it listens on the given port.`,
		Example: `  puzzlr mcp                               # stdio mode
  puzzlr mcp --transport http --port 3001  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv := pmcp.NewMCPServer(a.sessions, a.moderation, opts.versionString(), a.log)

			switch transport {
			case "stdio":
				return srv.ServeStdio()
			case "http":
				return srv.ServeHTTP(fmt.Sprintf(":%d", port))
			default:
				return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}
