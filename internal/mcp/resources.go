package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/vitalsync/internal/models"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) columns(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, models.SummaryColumns)
}

func (h *handlers) recentSummaries(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -14)

	rows, err := h.ds.QueryDailyRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		views = append(views, summaryView(r))
	}
	return jsonContents(req.Params.URI, views)
}
