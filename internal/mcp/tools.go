package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/storage"
)

// defaultDateRange returns start/end defaulting to the last 7 days.
func defaultDateRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = time.Parse(models.DateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = now.UTC().Truncate(24 * time.Hour)
	}

	if startStr != "" {
		start, err = time.Parse(models.DateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

// summaryView pairs every stored cell with its column name.
func summaryView(r storage.DailyRow) map[string]any {
	view := make(map[string]any, len(models.SummaryColumns))
	for i, col := range models.SummaryColumns {
		if i < len(r.Values) {
			view[col] = r.Values[i]
		}
	}
	return view
}

// --- Tool definitions ---

var toolGetDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Get the stored summary row for one day, keyed by column name. Returns null fields when a metric had no samples."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day (YYYY-MM-DD)")),
)

var toolListDailySummaries = mcp.NewTool("list_daily_summaries",
	mcp.WithDescription("List stored summary rows in a date range, oldest first, each keyed by column name."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 7 days before end.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) getDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	day, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date, use YYYY-MM-DD"), nil
	}

	row, err := h.ds.GetDailyRow(ctx, day)
	if err != nil {
		h.log.Error("mcp get_daily_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if row == nil {
		return mcp.NewToolResultError("no summary stored for " + dateStr), nil
	}

	result, err := mcp.NewToolResultJSON(summaryView(*row))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listDailySummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""), time.Now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	rows, err := h.ds.QueryDailyRows(ctx, start, end)
	if err != nil {
		h.log.Error("mcp list_daily_summaries", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	views := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		views = append(views, summaryView(r))
	}
	result, err := mcp.NewToolResultJSON(views)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
