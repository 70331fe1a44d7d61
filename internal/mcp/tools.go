package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

const (
	resourceRecentActivity = "puzzlr://activity/recent"
	resourceStats          = "puzzlr://stats"
)

// registerTools registers all puzzlr MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("puzzlr_recent_activity",
			mcp.WithDescription(
				"List the most recent admin actions (logins, logouts, puzzle approvals "+
					"and rejections, feedback updates), newest first.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of entries to return (default 50, max 500)"),
			),
		),
		s.handleRecentActivity,
	)

	srv.AddTool(
		mcp.NewTool("puzzlr_dashboard_stats",
			mcp.WithDescription(
				"Get the admin dashboard counts: puzzles by moderation status, users, "+
					"new users this week, completions, open feedback and active admin sessions.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleDashboardStats,
	)

	srv.AddTool(
		mcp.NewTool("puzzlr_pending_puzzles",
			mcp.WithDescription(
				"List user-submitted puzzles waiting for moderation, oldest submission first.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of puzzles to return (default 50, max 500)"),
			),
		),
		s.handlePendingPuzzles,
	)
}

// registerResources adds the dashboard snapshots as MCP resources.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			resourceRecentActivity,
			"Recent admin activity",
			mcp.WithResourceDescription("The newest admin audit entries, most recent first."),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			entries, err := s.dashboard.GetRecentActivity(ctx, 0)
			if err != nil {
				return nil, err
			}
			return jsonResource(resourceRecentActivity, entries)
		},
	)

	srv.AddResource(
		mcp.NewResource(
			resourceStats,
			"Dashboard statistics",
			mcp.WithResourceDescription("Current admin dashboard counts."),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			stats, err := s.dashboard.GetDashboardStats(ctx)
			if err != nil {
				return nil, err
			}
			return jsonResource(resourceStats, stats)
		},
	)
}

func (s *MCPServer) handleRecentActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.dashboard.GetRecentActivity(ctx, optionalInt(request, "limit", 0))
	if err != nil {
		s.logger.Error().Err(err).Msg("mcp: recent activity failed")
		return toolError(err)
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	return successJSON(map[string]any{
		"resource": entries,
		"count":    len(entries),
	})
}

func (s *MCPServer) handleDashboardStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.dashboard.GetDashboardStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("mcp: dashboard stats failed")
		return toolError(err)
	}
	return successJSON(stats)
}

func (s *MCPServer) handlePendingPuzzles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	puzzles, limit, err := s.moderation.ListPuzzles(ctx, string(model.PuzzlePending), optionalInt(request, "limit", 0))
	if err != nil {
		s.logger.Error().Err(err).Msg("mcp: pending puzzles failed")
		return toolError(err)
	}
	if puzzles == nil {
		puzzles = []model.Puzzle{}
	}
	return successJSON(map[string]any{
		"resource": puzzles,
		"count":    len(puzzles),
		"limit":    limit,
	})
}
