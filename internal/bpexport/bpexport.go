// Package bpexport writes the first blood-pressure reading of each day in a
// date range to CSV.
package bpexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// DefaultOutput is the file written when no output path is given.
const DefaultOutput = "blood_pressure_first.csv"

// Header is the CSV header row.
var Header = []string{"date", "timestamp_local", "systolic", "diastolic", "pulse"}

const localLayout = "2006-01-02 15:04:05"

// Provider fetches blood-pressure summaries. *connect.Client satisfies it.
type Provider interface {
	BloodPressure(ctx context.Context, start, end time.Time) (any, error)
}

// Reading is one exported measurement.
type Reading struct {
	Date      time.Time
	TimeLocal time.Time
	Systolic  any
	Diastolic any
	Pulse     any
}

// Record renders r as CSV fields.
func (r Reading) Record() []string {
	return []string{
		r.Date.Format(models.DateLayout),
		r.TimeLocal.UTC().Format(localLayout),
		cell(r.Systolic),
		cell(r.Diastolic),
		cell(r.Pulse),
	}
}

func cell(v any) string {
	if f, ok := models.AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Earliest flattens measurementSummaries[].measurements[] of a
// blood-pressure payload and returns the measurement with the earliest
// measurementTimestampLocal. ok is false when the day has none.
func Earliest(payload any) (m map[string]any, at time.Time, ok bool, err error) {
	root, _ := payload.(map[string]any)
	summaries, _ := root["measurementSummaries"].([]any)
	for _, s := range summaries {
		sm, _ := s.(map[string]any)
		measurements, _ := sm["measurements"].([]any)
		for _, raw := range measurements {
			meas, isMap := raw.(map[string]any)
			if !isMap {
				continue
			}
			ts, _ := meas["measurementTimestampLocal"].(string)
			t, perr := models.ParseISO(ts)
			if perr != nil {
				return nil, time.Time{}, false, fmt.Errorf("measurement timestamp: %w", perr)
			}
			if !ok || t.Before(at) {
				m, at, ok = meas, t, true
			}
		}
	}
	return m, at, ok, nil
}

// Exporter walks a date range one day at a time.
type Exporter struct {
	provider Provider
	delay    time.Duration
	log      *slog.Logger
}

// New returns an Exporter that waits delay after every exported day.
func New(provider Provider, delay time.Duration, log *slog.Logger) *Exporter {
	return &Exporter{provider: provider, delay: delay, log: log}
}

// Export writes the header and one row per day in [start, end] that has at
// least one measurement. It returns the number of days written.
func (e *Exporter) Export(ctx context.Context, start, end time.Time, w io.Writer) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end %s is before start %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	n := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		payload, err := e.provider.BloodPressure(ctx, day, day)
		if err != nil {
			return n, fmt.Errorf("fetching %s: %w", day.Format(models.DateLayout), err)
		}
		m, at, ok, err := Earliest(payload)
		if err != nil {
			return n, fmt.Errorf("%s: %w", day.Format(models.DateLayout), err)
		}
		if !ok {
			e.log.Debug("no blood pressure readings", "date", day.Format(models.DateLayout))
			continue
		}
		r := Reading{Date: day, TimeLocal: at, Systolic: m["systolic"], Diastolic: m["diastolic"], Pulse: m["pulse"]}
		if err := cw.Write(r.Record()); err != nil {
			return n, fmt.Errorf("writing row: %w", err)
		}
		n++

		if err := sleep(ctx, e.delay); err != nil {
			return n, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flushing csv: %w", err)
	}
	return n, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
