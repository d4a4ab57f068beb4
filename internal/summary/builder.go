package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// metricKeys names where one metric lives in a normalized document.
type metricKeys struct {
	name     string
	sleepKey string // series inside sleep_raw, keyed by startGMT/value
	dayKey   string // top-level full-day series
	dayValue string // value field of the full-day series
}

var metrics = []metricKeys{
	{name: "body battery", sleepKey: "sleepBodyBattery", dayKey: models.DocBodyBattery, dayValue: "value"},
	{name: "stress", sleepKey: "sleepStress", dayKey: models.DocStress, dayValue: "stressLevel"},
	{name: "heart rate", sleepKey: "sleepHeartRate", dayKey: models.DocHeartRate, dayValue: "heartRate"},
}

// Builder flattens normalized documents into daily summaries.
type Builder struct {
	// Zone is the output zone for every time cell.
	Zone *time.Location
	// Unit is how numeric timestamps in the document are read. Garmin
	// reports milliseconds everywhere.
	Unit models.EpochUnit
}

// NewBuilder returns a Builder rendering into zone with millisecond epochs.
func NewBuilder(zone *time.Location) *Builder {
	if zone == nil {
		zone = models.JST
	}
	return &Builder{Zone: zone, Unit: models.EpochMillis}
}

// Build assembles the summary for the document's day. Any missing required
// field is models.ErrIncompleteRecord and no summary is returned.
func (b *Builder) Build(doc map[string]any) (models.DailySummary, error) {
	var s models.DailySummary

	dateStr, _ := doc[models.DocDate].(string)
	if dateStr == "" {
		return models.DailySummary{}, incomplete(models.DocDate)
	}
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("%w: date %q", models.ErrMalformedTimestamp, dateStr)
	}
	s.Date = date

	sleep, ok := doc[models.DocSleep].(map[string]any)
	if !ok {
		return models.DailySummary{}, incomplete(models.DocSleep)
	}
	dto, ok := sleep["dailySleepDTO"].(map[string]any)
	if !ok {
		return models.DailySummary{}, incomplete(models.DocSleep, "dailySleepDTO")
	}

	if s.SleepStart, err = b.requiredTime(dto, "sleepStartTimestampGMT"); err != nil {
		return models.DailySummary{}, err
	}
	if s.SleepEnd, err = b.requiredTime(dto, "sleepEndTimestampGMT"); err != nil {
		return models.DailySummary{}, err
	}
	if s.DeepMinutes, err = stageMinutes(dto, "deepSleepSeconds"); err != nil {
		return models.DailySummary{}, err
	}
	if s.LightMinutes, err = stageMinutes(dto, "lightSleepSeconds"); err != nil {
		return models.DailySummary{}, err
	}
	if s.REMMinutes, err = stageMinutes(dto, "remSleepSeconds"); err != nil {
		return models.DailySummary{}, err
	}
	score, ok := lookup(dto, "sleepScores", "overall", "value")
	if !ok || score == nil {
		return models.DailySummary{}, incomplete(models.DocSleep, "dailySleepDTO", "sleepScores", "overall", "value")
	}
	s.SleepScore = score

	days := []*models.MetricDay{&s.BodyBattery, &s.Stress, &s.HeartRate}
	for i, m := range metrics {
		if *days[i], err = b.metricDay(doc, sleep, m); err != nil {
			return models.DailySummary{}, err
		}
	}

	s.HRVAvg, s.HRVMax, s.HRVMin, err = hrvStats(doc)
	if err != nil {
		return models.DailySummary{}, err
	}
	return s, nil
}

func (b *Builder) metricDay(doc, sleep map[string]any, m metricKeys) (models.MetricDay, error) {
	var day models.MetricDay

	sleepRows, ok := sleep[m.sleepKey].([]any)
	if !ok {
		return day, incomplete(models.DocSleep, m.sleepKey)
	}
	sleepSamples, err := Extract(sleepRows, "startGMT", "value", b.Unit, b.Zone)
	if err != nil {
		return day, fmt.Errorf("%s sleep series: %w", m.name, err)
	}
	bw, err := BedAndWake(sleepSamples)
	if err != nil {
		return day, fmt.Errorf("%s sleep series: %w", m.name, err)
	}
	day.Bed, day.Wake = bw.Bed, bw.Wake

	dayRows, ok := doc[m.dayKey].([]any)
	if !ok {
		return day, incomplete(m.dayKey)
	}
	daySamples, err := Extract(dayRows, "timestamp", m.dayValue, b.Unit, b.Zone)
	if err != nil {
		return day, fmt.Errorf("%s day series: %w", m.name, err)
	}
	day.Day = Extremes(daySamples)
	return day, nil
}

func (b *Builder) requiredTime(dto map[string]any, key string) (time.Time, error) {
	v := dto[key]
	if models.IsMissing(v) {
		return time.Time{}, incomplete(models.DocSleep, "dailySleepDTO", key)
	}
	t, err := models.Normalize(v, b.Unit, b.Zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

// stageMinutes converts a seconds field to minutes; absent or null is 0.
func stageMinutes(dto map[string]any, key string) (float64, error) {
	v, ok := dto[key]
	if !ok || v == nil {
		return 0, nil
	}
	sec, ok := models.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", models.ErrIncompleteRecord, key)
	}
	return sec / 60, nil
}

// hrvStats reduces hrv_raw to average, max and min of hrvValue. An absent or
// empty list gives three nils.
func hrvStats(doc map[string]any) (avg, hi, lo *float64, err error) {
	raw, present := doc[models.DocHRV]
	if !present || raw == nil {
		return nil, nil, nil, nil
	}
	rows, ok := raw.([]any)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s is not a list", models.ErrIncompleteRecord, models.DocHRV)
	}

	var sum float64
	n := 0
	for _, r := range rows {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		v, ok := models.AsFloat(rec["hrvValue"])
		if !ok {
			continue
		}
		if n == 0 {
			top, bottom := v, v
			hi, lo = &top, &bottom
		} else {
			if v > *hi {
				*hi = v
			}
			if v < *lo {
				*lo = v
			}
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil, nil, nil, nil
	}
	mean := sum / float64(n)
	return &mean, hi, lo, nil
}

// lookup walks nested mappings along path.
func lookup(node any, path ...string) (any, bool) {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[key]; !ok {
			return nil, false
		}
	}
	return node, true
}

func incomplete(path ...string) error {
	return fmt.Errorf("%w: %s missing", models.ErrIncompleteRecord, strings.Join(path, "."))
}
