package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestNormalizeAbsent verifies that nil and the empty string mean "no
// timestamp" rather than an error.
func TestNormalizeAbsent(t *testing.T) {
	for _, in := range []any{nil, ""} {
		got, err := Normalize(in, EpochMillis, JST)
		if err != nil {
			t.Errorf("Normalize(%#v): unexpected error %v", in, err)
		}
		if !got.IsZero() {
			t.Errorf("Normalize(%#v) = %v, want zero time", in, got)
		}
	}
}

// TestNormalizeEpochUnits verifies that the caller-chosen unit decides how a
// number is read, with no guessing from magnitude.
func TestNormalizeEpochUnits(t *testing.T) {
	want := time.Date(2024, 5, 5, 23, 0, 0, 0, time.UTC)

	ms, err := Normalize(float64(1714950000000), EpochMillis, time.UTC)
	if err != nil || !ms.Equal(want) {
		t.Errorf("millis: got %v, %v; want %v", ms, err, want)
	}
	sec, err := Normalize(float64(1714950000), EpochSeconds, time.UTC)
	if err != nil || !sec.Equal(want) {
		t.Errorf("seconds: got %v, %v; want %v", sec, err, want)
	}
	frac := FromEpochSeconds(1714950000.5, time.UTC)
	if frac.Nanosecond() != 500000000 {
		t.Errorf("fractional seconds lost: %v", frac)
	}
}

// TestNormalizeTargetZone verifies the final conversion into the requested zone.
func TestNormalizeTargetZone(t *testing.T) {
	got, err := Normalize(int64(1714950000000), EpochMillis, JST)
	if err != nil {
		t.Fatal(err)
	}
	if s := FormatISO(got); s != "2024-05-06T08:00:00+09:00" {
		t.Errorf("FormatISO = %s", s)
	}
	if _, off := got.Zone(); off != 9*3600 {
		t.Errorf("offset = %d, want %d", off, 9*3600)
	}
}

// TestNormalizeStrings verifies the ISO-8601 shapes that must parse.
func TestNormalizeStrings(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-05-05T10:00:00Z", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05T10:00:00", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05T10:00:00.250", time.Date(2025, 5, 5, 10, 0, 0, 250000000, time.UTC)},
		{"2025-05-05T19:00:00+09:00", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05T19:00:00+0900", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05T19:00:00+09", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05T05:30:00.5-0430", time.Date(2025, 5, 5, 10, 0, 0, 500000000, time.UTC)},
		{"2025-05-05 19:00:00+0900", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05 10:00:00", time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)},
		{"2025-05-05", time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in, EpochMillis, time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestNormalizeNaiveIsUTC verifies that an offset-less string is never read
// as local time, even when the process zone is not UTC.
func TestNormalizeNaiveIsUTC(t *testing.T) {
	t.Setenv("TZ", "America/New_York")
	got, err := Normalize("2025-05-05T10:00:00", EpochMillis, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 10 {
		t.Errorf("hour = %d, want 10", got.Hour())
	}
}

// TestNormalizeZEquivalence verifies that a trailing Z means exactly +00:00.
func TestNormalizeZEquivalence(t *testing.T) {
	for _, s := range []string{"2025-05-05T10:00:00Z", "2025-05-05T10:00:00.5Z", "2024-12-31T23:59:59Z"} {
		a, errA := Normalize(s, EpochMillis, JST)
		b, errB := Normalize(s[:len(s)-1]+"+00:00", EpochMillis, JST)
		if errA != nil || errB != nil {
			t.Fatalf("%s: errors %v / %v", s, errA, errB)
		}
		if !a.Equal(b) {
			t.Errorf("%s: %v != %v", s, a, b)
		}
	}
}

// TestNormalizeRoundTrip verifies that epoch inputs survive formatting in the
// canonical layout and parsing again.
func TestNormalizeRoundTrip(t *testing.T) {
	for _, e := range []float64{0, 1714950000000, 1746439200000, 1000} {
		direct, err := Normalize(e, EpochMillis, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		again, err := Normalize(FormatCanonical(direct), EpochMillis, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if !direct.Equal(again) {
			t.Errorf("%v: %v != %v", e, direct, again)
		}
	}
}

// TestNormalizeMalformed verifies that unparseable input is reported, never
// replaced by a default.
func TestNormalizeMalformed(t *testing.T) {
	for _, in := range []any{"yesterday", "2025-13-01T00:00:00", true, map[string]any{}} {
		_, err := Normalize(in, EpochMillis, time.UTC)
		if !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("Normalize(%#v) error = %v, want ErrMalformedTimestamp", in, err)
		}
	}
}

// TestNormalizeTimeValue verifies that an already-built moment is only
// converted to the target zone.
func TestNormalizeTimeValue(t *testing.T) {
	in := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	got, err := Normalize(in, EpochSeconds, JST)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(in) || got.Location() != JST {
		t.Errorf("got %v in %v", got, got.Location())
	}
}

// TestFormatCanonical verifies UTC rendering with second precision.
func TestFormatCanonical(t *testing.T) {
	in := time.Date(2025, 5, 6, 7, 30, 15, 999000000, JST)
	if got := FormatCanonical(in); got != "2025-05-05T22:30:15Z" {
		t.Errorf("FormatCanonical = %s", got)
	}
}

// TestFormatISOMicroseconds verifies that a fractional part appears only when present.
func TestFormatISOMicroseconds(t *testing.T) {
	in := time.Date(2025, 5, 6, 7, 30, 0, 123456000, JST)
	if got := FormatISO(in); got != "2025-05-06T07:30:00.123456+09:00" {
		t.Errorf("FormatISO = %s", got)
	}
}

// TestFixedOffsetName verifies zone naming for positive and negative offsets.
func TestFixedOffsetName(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{9 * time.Hour, "+09:00"},
		{-(3*time.Hour + 30*time.Minute), "-03:30"},
		{0, "+00:00"},
	}
	for _, tt := range tests {
		if got := FixedOffset(tt.d).String(); got != tt.want {
			t.Errorf("FixedOffset(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

// TestAsFloat verifies which values count as numbers.
func TestAsFloat(t *testing.T) {
	if _, ok := AsFloat(true); ok {
		t.Error("bool must not count as a number")
	}
	if _, ok := AsFloat("12"); ok {
		t.Error("numeric string must not count as a number")
	}
	if f, ok := AsFloat(json.Number("12.5")); !ok || f != 12.5 {
		t.Errorf("json.Number: %v %v", f, ok)
	}
	if f, ok := AsFloat(int64(-3)); !ok || f != -3 {
		t.Errorf("int64: %v %v", f, ok)
	}
}

// TestIsFalsy verifies the empty-or-zero test used for fallback keys.
func TestIsFalsy(t *testing.T) {
	for _, v := range []any{nil, "", false, 0, float64(0)} {
		if !IsFalsy(v) {
			t.Errorf("IsFalsy(%#v) = false", v)
		}
	}
	for _, v := range []any{"x", true, 1, float64(-1), []any{}} {
		if IsFalsy(v) {
			t.Errorf("IsFalsy(%#v) = true", v)
		}
	}
}
