// Package report renders a normalized day document as a plain-text digest.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/claude/vitalsync/internal/models"
	"github.com/claude/vitalsync/internal/summary"
)

const noData = "no data"

type metric struct {
	title    string
	sleepKey string
	dayKey   string
	dayValue string
}

var metrics = []metric{
	{"Body battery", "sleepBodyBattery", models.DocBodyBattery, "value"},
	{"Stress", "sleepStress", models.DocStress, "stressLevel"},
	{"Heart rate", "sleepHeartRate", models.DocHeartRate, "heartRate"},
}

// printer remembers the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Render writes the digest of doc with times shown in zone. Sections whose
// data is missing print "no data" rather than failing; only malformed
// timestamps and write errors are returned.
func Render(w io.Writer, doc map[string]any, zone *time.Location) error {
	if zone == nil {
		zone = models.JST
	}
	r := &renderer{p: &printer{w: w}, doc: doc, zone: zone}
	if err := r.render(); err != nil {
		return err
	}
	return r.p.err
}

type renderer struct {
	p    *printer
	doc  map[string]any
	zone *time.Location
}

func (r *renderer) render() error {
	date, _ := r.doc[models.DocDate].(string)
	day, err := time.ParseInLocation(models.DateLayout, date, r.zone)
	if err != nil {
		return fmt.Errorf("document date %q: %w", date, models.ErrMalformedTimestamp)
	}
	sleep, _ := r.doc[models.DocSleep].(map[string]any)

	r.p.printf("Garmin sleep data for %s\n\n", date)
	if err := r.sleepSection(sleep); err != nil {
		return err
	}
	for _, m := range metrics {
		if err := r.metricSection(m, sleep, day); err != nil {
			return err
		}
	}
	r.hrvSection(sleep)
	return r.bloodPressureSection()
}

func (r *renderer) sleepSection(sleep map[string]any) error {
	r.p.printf("== Sleep\n")
	dto, _ := sleep["dailySleepDTO"].(map[string]any)
	if dto == nil {
		r.p.printf("- %s\n\n", noData)
		return nil
	}
	score := "N/A"
	if v, ok := models.AsFloat(lookup(dto, "sleepScores", "overall", "value")); ok {
		score = number(v)
	}
	r.p.printf("- score: %s\n", score)

	start, err := models.Normalize(dto["sleepStartTimestampGMT"], models.EpochMillis, r.zone)
	if err != nil {
		return fmt.Errorf("sleep start: %w", err)
	}
	end, err := models.Normalize(dto["sleepEndTimestampGMT"], models.EpochMillis, r.zone)
	if err != nil {
		return fmt.Errorf("sleep end: %w", err)
	}
	if start.IsZero() || end.IsZero() {
		r.p.printf("- window: %s\n", noData)
	} else {
		r.p.printf("- window: %s - %s\n", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	}
	r.p.printf("- deep: %s min / light: %s min / REM: %s min\n\n",
		minutes(dto["deepSleepSeconds"]), minutes(dto["lightSleepSeconds"]), minutes(dto["remSleepSeconds"]))
	return nil
}

func (r *renderer) metricSection(m metric, sleep map[string]any, day time.Time) error {
	r.p.printf("== %s\n", m.title)

	sleepRows, _ := sleep[m.sleepKey].([]any)
	sleepSamples, err := summary.Extract(sleepRows, "startGMT", "value", models.EpochMillis, r.zone)
	if err != nil {
		return fmt.Errorf("%s sleep series: %w", m.title, err)
	}
	if bw, err := summary.BedAndWake(sleepSamples); err == nil {
		r.line("bed", &bw.Bed)
		r.line("wake", &bw.Wake)
	} else {
		r.line("bed", nil)
		r.line("wake", nil)
	}

	dayRows, _ := r.doc[m.dayKey].([]any)
	daySamples, err := summary.Extract(dayRows, "timestamp", m.dayValue, models.EpochMillis, r.zone)
	if err != nil {
		return fmt.Errorf("%s day series: %w", m.title, err)
	}
	daySamples = previousDay(daySamples, day)
	prev := day.AddDate(0, 0, -1)
	ext := summary.Extremes(daySamples)
	r.line("previous-day max", ext.Max)
	r.line("previous-day min", ext.Min)
	for _, hour := range []int{15, 19} {
		target := time.Date(prev.Year(), prev.Month(), prev.Day(), hour, 0, 0, 0, r.zone)
		label := fmt.Sprintf("previous-day %02d:00", hour)
		if s, err := summary.ClosestTo(daySamples, target); err == nil {
			r.line(label, &s)
		} else {
			r.line(label, nil)
		}
	}
	r.p.printf("\n")
	return nil
}

// previousDay keeps the non-zero samples taken before midnight of day. A
// zero reading means the device was off wrist or not measuring.
func previousDay(samples []models.MetricSample, day time.Time) []models.MetricSample {
	var kept []models.MetricSample
	for _, s := range samples {
		if s.Time.Before(day) && s.Value != 0 {
			kept = append(kept, s)
		}
	}
	return kept
}

func (r *renderer) line(label string, s *models.MetricSample) {
	if s == nil {
		r.p.printf("- %s: %s\n", label, noData)
		return
	}
	r.p.printf("- %s: %s at %s\n", label, number(s.Value), s.Time.Format("15:04"))
}

// hrvSection prints the overnight average reported in the sleep payload when
// there is one, else the mean of the readings.
func (r *renderer) hrvSection(sleep map[string]any) {
	rows, _ := r.doc[models.DocHRV].([]any)
	var vals []float64
	for _, row := range rows {
		rec, _ := row.(map[string]any)
		if v, ok := models.AsFloat(rec["hrvValue"]); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return
	}
	avg, ok := models.AsFloat(sleep["avgOvernightHrv"])
	if !ok {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		avg = math.Round(sum/float64(len(vals))*10) / 10
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	r.p.printf("== HRV (overnight)\n- avg: %s\n- max: %s\n- min: %s\n\n", number(avg), number(hi), number(lo))
}

type bpReading struct {
	at                         time.Time
	systolic, diastolic, pulse any
}

func (r *renderer) readings(key string) ([]bpReading, error) {
	summaries, _ := r.doc[key].([]any)
	var out []bpReading
	for _, s := range summaries {
		sm, _ := s.(map[string]any)
		ms, _ := sm["measurements"].([]any)
		for _, raw := range ms {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			at, err := models.Normalize(m["measurementTimestampGMT"], models.EpochMillis, r.zone)
			if err != nil {
				return nil, fmt.Errorf("%s measurement: %w", key, err)
			}
			if at.IsZero() {
				continue
			}
			out = append(out, bpReading{at: at, systolic: m["systolic"], diastolic: m["diastolic"], pulse: m["pulse"]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out, nil
}

func (r *renderer) bloodPressureSection() error {
	prev, err := r.readings(models.DocBloodPressurePrev)
	if err != nil {
		return err
	}
	today, err := r.readings(models.DocBloodPressure)
	if err != nil {
		return err
	}

	r.p.printf("== Blood pressure\n")
	if len(prev) > 0 {
		r.bp("before bed", prev[len(prev)-1])
	} else {
		r.p.printf("- before bed: %s\n", noData)
	}
	if len(today) > 0 {
		r.bp("on waking", today[0])
	} else {
		r.p.printf("- on waking: %s\n", noData)
	}
	r.p.printf("\n")

	if len(prev) > 2 {
		r.p.printf("== Previous-day blood pressure\n")
		for _, b := range prev[1 : len(prev)-1] {
			if b.systolic == nil || b.diastolic == nil {
				continue
			}
			r.p.printf("- %s: %s/%s %sbpm\n", b.at.Format("15:04"), cell(b.systolic), cell(b.diastolic), cell(b.pulse))
		}
		r.p.printf("\n")
	}
	return nil
}

func (r *renderer) bp(label string, b bpReading) {
	r.p.printf("- %s: %s/%s %sbpm at %s\n", label, cell(b.systolic), cell(b.diastolic), cell(b.pulse), b.at.Format("15:04"))
}

func lookup(node any, path ...string) any {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[key]
	}
	return node
}

func minutes(v any) string {
	sec, _ := models.AsFloat(v)
	return number(math.Floor(sec / 60))
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cell(v any) string {
	if f, ok := models.AsFloat(v); ok {
		return number(f)
	}
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
