package mcp

import (
	"context"
	"time"

	"github.com/claude/vitalsync/internal/storage"
)

// DataSource abstracts the summary history for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetDailyRow(ctx context.Context, day time.Time) (*storage.DailyRow, error)
	QueryDailyRows(ctx context.Context, start, end time.Time) ([]storage.DailyRow, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
