package bpexport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider map[string]string

func (f fakeProvider) BloodPressure(_ context.Context, start, _ time.Time) (any, error) {
	raw, ok := f[start.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func date(d int) time.Time {
	return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
}

// TestEarliest verifies that measurements are flattened across summaries
// and the earliest local timestamp wins.
func TestEarliest(t *testing.T) {
	var payload any
	json.Unmarshal([]byte(`{"measurementSummaries": [
		{"measurements": [{"measurementTimestampLocal": "2025-05-01T21:10:00.0", "systolic": 130}]},
		{"measurements": [
			{"measurementTimestampLocal": "2025-05-01T06:55:00.0", "systolic": 118},
			{"measurementTimestampLocal": "2025-05-01T12:00:00", "systolic": 125}
		]}
	]}`), &payload)

	m, at, ok, err := Earliest(payload)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if m["systolic"] != float64(118) {
		t.Errorf("picked %v", m)
	}
	if at.Hour() != 6 || at.Minute() != 55 {
		t.Errorf("at = %v", at)
	}
}

// TestEarliestEmpty verifies that missing or empty payloads report no
// measurement.
func TestEarliestEmpty(t *testing.T) {
	for _, payload := range []any{nil, map[string]any{}, map[string]any{"measurementSummaries": []any{}}} {
		if _, _, ok, err := Earliest(payload); ok || err != nil {
			t.Errorf("Earliest(%v) = ok %v, err %v", payload, ok, err)
		}
	}
}

// TestEarliestMalformed verifies that a bad timestamp is an error.
func TestEarliestMalformed(t *testing.T) {
	payload := map[string]any{"measurementSummaries": []any{
		map[string]any{"measurements": []any{map[string]any{"measurementTimestampLocal": "yesterday"}}},
	}}
	if _, _, _, err := Earliest(payload); err == nil {
		t.Error("expected error")
	}
}

// TestExport verifies the CSV output over a range with a day lacking data.
func TestExport(t *testing.T) {
	prov := fakeProvider{
		"2025-05-01": `{"measurementSummaries": [{"measurements": [
			{"measurementTimestampLocal": "2025-05-01T07:02:00.0", "systolic": 121, "diastolic": 79, "pulse": 64}]}]}`,
		"2025-05-03": `{"measurementSummaries": [{"measurements": [
			{"measurementTimestampLocal": "2025-05-03T06:40:00", "systolic": 117, "diastolic": 76}]}]}`,
	}
	var buf bytes.Buffer
	n, err := New(prov, 0, discardLogger()).Export(context.Background(), date(1), date(3), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("exported %d days, want 2", n)
	}
	want := "date,timestamp_local,systolic,diastolic,pulse\n" +
		"2025-05-01,2025-05-01 07:02:00,121,79,64\n" +
		"2025-05-03,2025-05-03 06:40:00,117,76,\n"
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

// TestExportHeaderOnly verifies that the header is written even when no day
// has data.
func TestExportHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	n, err := New(fakeProvider{}, 0, discardLogger()).Export(context.Background(), date(1), date(2), &buf)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if buf.String() != "date,timestamp_local,systolic,diastolic,pulse\n" {
		t.Errorf("got %q", buf.String())
	}
}

// TestExportReversedRange verifies that end before start is rejected.
func TestExportReversedRange(t *testing.T) {
	if _, err := New(fakeProvider{}, 0, discardLogger()).Export(context.Background(), date(3), date(1), io.Discard); err == nil {
		t.Error("expected error")
	}
}

// TestExportCancelled verifies that the pacing delay honours cancellation.
func TestExportCancelled(t *testing.T) {
	prov := fakeProvider{
		"2025-05-01": `{"measurementSummaries": [{"measurements": [{"measurementTimestampLocal": "2025-05-01T07:02:00"}]}]}`,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(prov, time.Hour, discardLogger()).Export(ctx, date(1), date(2), io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
