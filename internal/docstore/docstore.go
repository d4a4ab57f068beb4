// Package docstore persists normalized daily documents, one JSON object per
// calendar day.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// ErrNotFound means no document is stored for the requested day.
var ErrNotFound = errors.New("document not found")

// Store saves and loads documents by day.
type Store interface {
	Save(ctx context.Context, day time.Time, data []byte) error
	Load(ctx context.Context, day time.Time) ([]byte, error)
}

// FileName is the per-day document name, "2025-05-06.json".
func FileName(day time.Time) string {
	return day.Format(models.DateLayout) + ".json"
}

// Dir stores documents as files in a local directory.
type Dir struct {
	Path string
}

// Save writes data to <dir>/<date>.json, replacing any previous file.
func (d *Dir) Save(_ context.Context, day time.Time, data []byte) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("creating document dir %s: %w", d.Path, err)
	}
	path := filepath.Join(d.Path, FileName(day))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming document: %w", err)
	}
	return nil
}

// Load reads <dir>/<date>.json.
func (d *Dir) Load(_ context.Context, day time.Time) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.Path, FileName(day)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", FileName(day), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return data, nil
}
