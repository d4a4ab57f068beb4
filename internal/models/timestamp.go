package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// CanonicalLayout is the UTC, second-precision form every time-bearing field
// of a normalized document is rewritten to.
const CanonicalLayout = "2006-01-02T15:04:05Z"

// DateLayout is the calendar-date form used for document and row dates.
const DateLayout = "2006-01-02"

// isoLayouts are tried in order. Go accepts a fractional second after the
// seconds field even when the layout omits it, so each entry covers both the
// plain and the fractional variant. Layouts without an offset parse as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	DateLayout,
}

// EpochUnit says how a numeric timestamp should be read. There is no
// magnitude-based guessing; every caller states the unit.
type EpochUnit int

const (
	EpochSeconds EpochUnit = iota
	EpochMillis
)

func (u EpochUnit) String() string {
	if u == EpochMillis {
		return "ms"
	}
	return "s"
}

// FixedOffset returns a zone with a constant UTC offset, named like "+09:00".
func FixedOffset(d time.Duration) *time.Location {
	abs, sign := d, '+'
	if d < 0 {
		abs, sign = -d, '-'
	}
	name := fmt.Sprintf("%c%02d:%02d", sign, int(abs/time.Hour), int(abs%time.Hour/time.Minute))
	return time.FixedZone(name, int(d/time.Second))
}

// JST is the default output zone for summary rows.
var JST = FixedOffset(9 * time.Hour)

// FromEpochSeconds converts fractional UNIX seconds to a moment in loc.
func FromEpochSeconds(sec float64, loc *time.Location) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).In(loc)
}

// FromEpochMillis converts UNIX milliseconds to a moment in loc.
func FromEpochMillis(ms float64, loc *time.Location) time.Time {
	whole, frac := math.Modf(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(math.Round(frac * 1e6))).In(loc)
}

// ParseISO parses an ISO-8601 timestamp. A trailing "Z" is treated as
// "+00:00"; strings without an offset are taken as UTC, never local.
func ParseISO(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if strings.HasSuffix(v, "Z") {
		v = v[:len(v)-1] + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// Normalize converts one timestamp value into a moment in loc.
//
// Accepted inputs are time.Time, numbers (read as unit) and ISO-8601
// strings. nil and "" mean "no timestamp" and yield the zero Time with a nil
// error; callers check IsZero. Any other shape is ErrMalformedTimestamp.
func Normalize(v any, unit EpochUnit, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x.In(loc), nil
	case *time.Time:
		if x == nil {
			return time.Time{}, nil
		}
		return x.In(loc), nil
	case string:
		if x == "" {
			return time.Time{}, nil
		}
		t, err := ParseISO(x)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(loc), nil
	}

	n, ok := AsFloat(v)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrMalformedTimestamp, v)
	}
	if unit == EpochMillis {
		return FromEpochMillis(n, loc), nil
	}
	return FromEpochSeconds(n, loc), nil
}

// FormatCanonical renders t in CanonicalLayout.
func FormatCanonical(t time.Time) string {
	return t.UTC().Format(CanonicalLayout)
}

// FormatISO renders t with its numeric offset, adding microseconds only when
// they are non-zero ("2025-05-06T07:30:00+09:00").
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02T15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02T15:04:05-07:00")
}

// AsFloat reports whether v is a JSON-ish number and returns it. Booleans are
// not numbers.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// IsMissing reports whether a field value counts as absent.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// IsFalsy mirrors the "empty or zero" test used for fallback keys: nil, "",
// false and numeric zero.
func IsFalsy(v any) bool {
	if IsMissing(v) {
		return true
	}
	if b, ok := v.(bool); ok {
		return !b
	}
	if n, ok := AsFloat(v); ok {
		return n == 0
	}
	return false
}

var (
	// ErrMalformedTimestamp means a timestamp matched none of the accepted shapes.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrIncompleteRecord means a field required for the daily row is absent.
	ErrIncompleteRecord = errors.New("incomplete record")
	// ErrNoSamples means a bed/wake or closest-point query ran on an empty series.
	ErrNoSamples = errors.New("no samples")
)
