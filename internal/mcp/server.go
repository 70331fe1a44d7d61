package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

// Dashboard is the read side of the admin services the MCP tools expose.
type Dashboard interface {
	GetRecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error)
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// Moderation lists the moderation queue.
type Moderation interface {
	ListPuzzles(ctx context.Context, status string, limit int) ([]model.Puzzle, int, error)
}

// MCPServer wraps the mcp-go server with read-only tools and resources over
// the admin dashboard, so operators can inspect the audit trail and the
// moderation queue from an MCP client. Nothing here can change state.
type MCPServer struct {
	dashboard  Dashboard
	moderation Moderation
	logger     zerolog.Logger
	server     *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all puzzlr tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(dashboard Dashboard, moderation Moderation, version string, logger zerolog.Logger) *MCPServer {
	s := &MCPServer{
		dashboard:  dashboard,
		moderation: moderation,
		logger:     logger,
	}

	mcpServer := server.NewMCPServer(
		"Puzzlr Admin",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// puzzlr as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info().Msg("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info().Str("addr", addr).Msg("MCP HTTP server starting")
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
