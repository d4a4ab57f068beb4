package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/vitalsync/internal/storage"
)

// RowStore is the subset of *storage.DB the Postgres sink needs.
type RowStore interface {
	InsertDailyRow(ctx context.Context, r storage.DailyRow) (bool, error)
}

// Postgres stores rows in the daily_rows table.
type Postgres struct {
	store RowStore
	log   *slog.Logger
}

func NewPostgres(store RowStore, log *slog.Logger) *Postgres {
	return &Postgres{store: store, log: log}
}

func (p *Postgres) Name() string { return "postgres" }

// Append inserts row. A row for a day that is already stored is left as it
// is and not treated as an error.
func (p *Postgres) Append(ctx context.Context, row []any) error {
	r, err := storage.DailyRowFromValues(row)
	if err != nil {
		return fmt.Errorf("converting row: %w", err)
	}
	inserted, err := p.store.InsertDailyRow(ctx, r)
	if err != nil {
		return err
	}
	if !inserted {
		p.log.Info("daily row already stored", "date", r.Day.Format("2006-01-02"))
	}
	return nil
}
