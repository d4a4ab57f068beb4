package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/vitalsync/internal/models"
)

// DailyRow is one stored summary row. Values keeps the positional cells;
// the other fields are copies of a few of them for querying.
type DailyRow struct {
	Day        time.Time  `json:"day"`
	SleepScore *float64   `json:"sleep_score"`
	SleepStart *time.Time `json:"sleep_start"`
	SleepEnd   *time.Time `json:"sleep_end"`
	HRVAvg     *float64   `json:"hrv_avg"`
	Values     []any      `json:"values"`
	CreatedAt  time.Time  `json:"created_at"`
}

func columnIndex(name string) int {
	for i, c := range models.SummaryColumns {
		if c == name {
			return i
		}
	}
	panic("unknown summary column " + name)
}

var (
	colDate       = columnIndex("date")
	colSleepStart = columnIndex("sleep_start")
	colSleepEnd   = columnIndex("sleep_end")
	colSleepScore = columnIndex("sleep_score")
	colHRVAvg     = columnIndex("hrv_avg")
)

// DailyRowFromValues reads the indexed columns out of a positional row.
func DailyRowFromValues(values []any) (DailyRow, error) {
	if len(values) != models.SummaryWidth {
		return DailyRow{}, fmt.Errorf("row has %d cells, want %d", len(values), models.SummaryWidth)
	}
	dateStr, _ := values[colDate].(string)
	day, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return DailyRow{}, fmt.Errorf("row date %q: %w", dateStr, err)
	}

	r := DailyRow{Day: day, Values: values}
	if r.SleepStart, err = optionalTime(values[colSleepStart]); err != nil {
		return DailyRow{}, err
	}
	if r.SleepEnd, err = optionalTime(values[colSleepEnd]); err != nil {
		return DailyRow{}, err
	}
	r.SleepScore = optionalFloat(values[colSleepScore])
	r.HRVAvg = optionalFloat(values[colHRVAvg])
	return r, nil
}

func optionalTime(v any) (*time.Time, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, nil
	}
	t, err := models.ParseISO(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalFloat(v any) *float64 {
	f, ok := models.AsFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// InsertDailyRow stores r unless a row for the same day exists. Rows are
// append-only; inserted is false when the day was already present.
func (db *DB) InsertDailyRow(ctx context.Context, r DailyRow) (inserted bool, err error) {
	values, err := json.Marshal(r.Values)
	if err != nil {
		return false, fmt.Errorf("encoding row values: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO daily_rows (day, sleep_score, sleep_start, sleep_end, hrv_avg, row_values)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (day) DO NOTHING`,
		r.Day, r.SleepScore, r.SleepStart, r.SleepEnd, r.HRVAvg, values,
	)
	if err != nil {
		return false, fmt.Errorf("inserting daily row: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const dailyRowColumns = `day, sleep_score, sleep_start, sleep_end, hrv_avg, row_values, created_at`

func scanDailyRow(row pgx.Row) (DailyRow, error) {
	var (
		r      DailyRow
		values []byte
	)
	if err := row.Scan(&r.Day, &r.SleepScore, &r.SleepStart, &r.SleepEnd, &r.HRVAvg, &values, &r.CreatedAt); err != nil {
		return DailyRow{}, err
	}
	if err := json.Unmarshal(values, &r.Values); err != nil {
		return DailyRow{}, fmt.Errorf("decoding row values: %w", err)
	}
	return r, nil
}

// GetDailyRow returns the row for day, or nil when there is none.
func (db *DB) GetDailyRow(ctx context.Context, day time.Time) (*DailyRow, error) {
	r, err := scanDailyRow(db.Pool.QueryRow(ctx,
		`SELECT `+dailyRowColumns+` FROM daily_rows WHERE day = $1`, day))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying daily row: %w", err)
	}
	return &r, nil
}

// QueryDailyRows returns rows with start <= day <= end, oldest first.
func (db *DB) QueryDailyRows(ctx context.Context, start, end time.Time) ([]DailyRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+dailyRowColumns+` FROM daily_rows
		 WHERE day >= $1 AND day <= $2
		 ORDER BY day`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying daily rows: %w", err)
	}
	defer rows.Close()

	var result []DailyRow
	for rows.Next() {
		r, err := scanDailyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning daily row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
