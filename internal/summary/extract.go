// Package summary cleans metric series and flattens a normalized document
// into the daily summary row.
package summary

import (
	"fmt"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// fallbackTimeKey is consulted when a record's own time key is empty.
const fallbackTimeKey = "timestamp"

// Extract turns keyed records into cleaned samples, in input order.
//
// The time is read from timeKey, or from "timestamp" when that is absent or
// falsy. Negative values are clamped to 0. Records without a time or a
// numeric value are dropped. A time that is present but unparseable is an
// error, since substituting a default would corrupt the row.
func Extract(records []any, timeKey, valueKey string, unit models.EpochUnit, loc *time.Location) ([]models.MetricSample, error) {
	samples := make([]models.MetricSample, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}

		ts := rec[timeKey]
		if models.IsFalsy(ts) {
			ts = rec[fallbackTimeKey]
		}
		raw, present := rec[valueKey]
		if !present || raw == nil || models.IsMissing(ts) {
			continue
		}
		value, ok := models.AsFloat(raw)
		if !ok {
			continue
		}
		if value < 0 {
			value = 0
		}

		t, err := models.Normalize(ts, unit, loc)
		if err != nil {
			return nil, fmt.Errorf("record %d %s: %w", i, timeKey, err)
		}
		if t.IsZero() {
			continue
		}
		samples = append(samples, models.MetricSample{Time: t, Value: value})
	}
	return samples, nil
}
