package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run log statuses.
const (
	RunSuccess = "success"
	RunSkipped = "skipped"
	RunError   = "error"
)

// RunLog records the outcome of one command invocation.
type RunLog struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	Command      string     `json:"command"`
	Day          *time.Time `json:"day"`
	Status       string     `json:"status"`
	DurationMs   *int       `json:"duration_ms"`
	ErrorMessage *string    `json:"error_message"`
}

// InsertRunLog stores l, assigning a new ID when l.ID is zero.
func (db *DB) InsertRunLog(ctx context.Context, l RunLog) (uuid.UUID, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO run_logs (id, command, day, status, duration_ms, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID.String(), l.Command, l.Day, l.Status, l.DurationMs, l.ErrorMessage,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting run log: %w", err)
	}
	return l.ID, nil
}

// QueryRunLogs returns the most recent run logs.
func (db *DB) QueryRunLogs(ctx context.Context, limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, created_at, command, day, status, duration_ms, error_message
		 FROM run_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying run logs: %w", err)
	}
	defer rows.Close()

	var result []RunLog
	for rows.Next() {
		var (
			l  RunLog
			id string
		)
		if err := rows.Scan(&id, &l.CreatedAt, &l.Command, &l.Day, &l.Status, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning run log: %w", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing run log id: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
