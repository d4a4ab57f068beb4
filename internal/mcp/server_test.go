package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/storage"
)

type fakeSource struct {
	rows       []storage.DailyRow
	err        error
	start, end time.Time
}

func (f *fakeSource) GetDailyRow(_ context.Context, day time.Time) (*storage.DailyRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r.Day.Equal(day) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeSource) QueryDailyRows(_ context.Context, start, end time.Time) ([]storage.DailyRow, error) {
	f.start, f.end = start, end
	return f.rows, f.err
}

func testHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func storedRow() storage.DailyRow {
	values := make([]any, models.SummaryWidth)
	values[0] = "2025-05-06"
	values[6] = float64(81)
	return storage.DailyRow{Day: time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC), Values: values}
}

func callTool(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

// TestDefaultDateRange verifies range defaults (last 7 days) and parsing.
func TestDefaultDateRange(t *testing.T) {
	now := time.Date(2025, 5, 6, 13, 0, 0, 0, time.UTC)

	start, end, err := defaultDateRange("", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format(models.DateLayout) != "2025-04-29" || end.Format(models.DateLayout) != "2025-05-06" {
		t.Errorf("default range = %v..%v", start, end)
	}

	start, end, err = defaultDateRange("2024-01-01", "2024-01-31", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Day() != 1 || end.Day() != 31 {
		t.Errorf("range = %v..%v", start, end)
	}

	if _, _, err = defaultDateRange("not-a-date", "", now); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestSummaryView verifies that cells are keyed by column name.
func TestSummaryView(t *testing.T) {
	view := summaryView(storedRow())
	if len(view) != models.SummaryWidth {
		t.Errorf("view has %d keys", len(view))
	}
	if view["date"] != "2025-05-06" || view["sleep_score"] != float64(81) {
		t.Errorf("view = %v", view)
	}
}

// TestGetDailySummary verifies lookup, missing rows and bad input.
func TestGetDailySummary(t *testing.T) {
	h := testHandlers(&fakeSource{rows: []storage.DailyRow{storedRow()}})
	ctx := context.Background()

	res, err := h.getDailySummary(ctx, callTool(map[string]any{"date": "2025-05-06"}))
	if err != nil || res.IsError {
		t.Fatalf("err = %v, result = %+v", err, res)
	}
	if !strings.Contains(resultText(t, res), `"sleep_score":81`) {
		t.Errorf("text = %s", resultText(t, res))
	}

	for _, args := range []map[string]any{{"date": "2025-05-07"}, {"date": "May 6"}, {}} {
		res, err := h.getDailySummary(ctx, callTool(args))
		if err != nil || !res.IsError {
			t.Errorf("args %v: err = %v, isError = %v", args, err, res.IsError)
		}
	}
}

// TestListDailySummaries verifies the range passed to the data source and
// that failures become tool errors.
func TestListDailySummaries(t *testing.T) {
	ds := &fakeSource{rows: []storage.DailyRow{storedRow()}}
	h := testHandlers(ds)
	res, err := h.listDailySummaries(context.Background(), callTool(map[string]any{"start": "2025-05-01", "end": "2025-05-06"}))
	if err != nil || res.IsError {
		t.Fatalf("err = %v, result = %+v", err, res)
	}
	if ds.start.Day() != 1 || ds.end.Day() != 6 {
		t.Errorf("range = %v..%v", ds.start, ds.end)
	}
	if !strings.Contains(resultText(t, res), `"date":"2025-05-06"`) {
		t.Errorf("text = %s", resultText(t, res))
	}

	h = testHandlers(&fakeSource{err: errors.New("db down")})
	res, _ = h.listDailySummaries(context.Background(), callTool(nil))
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestColumnsResource verifies the column list resource.
func TestColumnsResource(t *testing.T) {
	h := testHandlers(&fakeSource{})
	req := mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: "vitalsync://columns"}}
	contents, err := h.columns(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.HasPrefix(text, `["date","sleep_start"`) {
		t.Errorf("text = %s", text)
	}
}
