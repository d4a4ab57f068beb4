package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("vitalsync", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("vitalsync daily wearable summaries. Each summary is one row per day: sleep window, sleep stage minutes, sleep score, body battery / stress / heart rate at bed, wake, day min and day max, and overnight HRV. Times are in the configured output zone."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetDailySummary, Handler: h.getDailySummary},
		server.ServerTool{Tool: toolListDailySummaries, Handler: h.listDailySummaries},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resColumns, Handler: h.columns},
		server.ServerResource{Resource: resRecentSummaries, Handler: h.recentSummaries},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resColumns = mcp.NewResource(
	"vitalsync://columns",
	"Summary Columns",
	mcp.WithResourceDescription("Ordered column names of the daily summary row"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSummaries = mcp.NewResource(
	"vitalsync://recent_summaries",
	"Recent Summaries",
	mcp.WithResourceDescription("Daily summaries from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
