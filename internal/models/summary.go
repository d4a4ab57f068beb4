package models

import "time"

// Top-level keys of a normalized document.
const (
	DocDate              = "date"
	DocSleep             = "sleep_raw"
	DocBodyBattery       = "bb_raw"
	DocStress            = "stress_raw"
	DocHeartRate         = "hr_raw"
	DocHRV               = "hrv_raw"
	DocBloodPressure     = "bp_raw"
	DocBloodPressurePrev = "bp_y_raw"
)

// SummaryWidth is the number of positional cells in a daily summary row.
const SummaryWidth = 34

// SummaryColumns names the cells of a daily summary row, in order. Storage
// is positional, so this order must never change.
var SummaryColumns = []string{
	"date",
	"sleep_start",
	"sleep_end",
	"deep_minutes",
	"light_minutes",
	"rem_minutes",
	"sleep_score",
	"bb_bed_value", "bb_bed_time",
	"bb_wake_value", "bb_wake_time",
	"bb_min_value", "bb_min_time",
	"bb_max_value", "bb_max_time",
	"stress_bed_value", "stress_bed_time",
	"stress_wake_value", "stress_wake_time",
	"stress_min_value", "stress_min_time",
	"stress_max_value", "stress_max_time",
	"hr_bed_value", "hr_bed_time",
	"hr_wake_value", "hr_wake_time",
	"hr_min_value", "hr_min_time",
	"hr_max_value", "hr_max_time",
	"hrv_avg",
	"hrv_max",
	"hrv_min",
}

// MetricDay is the bed/wake/day-extreme block for one metric.
type MetricDay struct {
	Bed  MetricSample
	Wake MetricSample
	Day  ExtremalPair
}

// DailySummary is the flattened result for one calendar day. It is built once
// and never modified; Values gives its positional form.
type DailySummary struct {
	Date         time.Time
	SleepStart   time.Time
	SleepEnd     time.Time
	DeepMinutes  float64
	LightMinutes float64
	REMMinutes   float64
	SleepScore   any

	BodyBattery MetricDay
	Stress      MetricDay
	HeartRate   MetricDay

	HRVAvg *float64
	HRVMax *float64
	HRVMin *float64
}

// Values returns the row cells in SummaryColumns order. Times are rendered
// with their offset; absent values are nil.
func (s DailySummary) Values() []any {
	row := make([]any, 0, SummaryWidth)
	row = append(row,
		s.Date.Format(DateLayout),
		FormatISO(s.SleepStart),
		FormatISO(s.SleepEnd),
		s.DeepMinutes,
		s.LightMinutes,
		s.REMMinutes,
		s.SleepScore,
	)
	for _, m := range []MetricDay{s.BodyBattery, s.Stress, s.HeartRate} {
		row = append(row,
			m.Bed.Value, FormatISO(m.Bed.Time),
			m.Wake.Value, FormatISO(m.Wake.Time),
		)
		row = appendSample(row, m.Day.Min)
		row = appendSample(row, m.Day.Max)
	}
	row = append(row, floatOrNil(s.HRVAvg), floatOrNil(s.HRVMax), floatOrNil(s.HRVMin))
	return row
}

func appendSample(row []any, s *MetricSample) []any {
	if s == nil {
		return append(row, nil, nil)
	}
	return append(row, s.Value, FormatISO(s.Time))
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
