package garmin

// RowKind tells the two wire shapes of a metric sample apart.
type RowKind int

const (
	KindUnknown    RowKind = iota // neither a mapping nor a sequence
	KindKeyed                     // {"timestamp": ..., "value": ...}
	KindPositional                // [timestamp, value]
)

// Row is a raw sample whose shape has been decided once. Exactly one of
// Keyed or Positional is set for a known kind.
type Row struct {
	Kind       RowKind
	Keyed      map[string]any
	Positional []any
}

// ClassifyRow resolves the shape of one decoded JSON value.
func ClassifyRow(v any) Row {
	switch r := v.(type) {
	case map[string]any:
		return Row{Kind: KindKeyed, Keyed: r}
	case []any:
		return Row{Kind: KindPositional, Positional: r}
	default:
		return Row{Kind: KindUnknown}
	}
}

// Record returns the row as a keyed record. Positional rows are zipped
// against fields; positions beyond the end of the row are left out, not set
// to nil. Unknown rows report false.
func (r Row) Record(fields []string) (map[string]any, bool) {
	switch r.Kind {
	case KindKeyed:
		return r.Keyed, true
	case KindPositional:
		rec := make(map[string]any, len(fields))
		for i, name := range fields {
			if i >= len(r.Positional) {
				break
			}
			rec[name] = r.Positional[i]
		}
		return rec, true
	default:
		return nil, false
	}
}

// Adapt converts raw samples into keyed records in input order. Rows that
// are neither mappings nor sequences are dropped; dropped reports how many.
func Adapt(rows []any, fields []string) (records []any, dropped int) {
	records = make([]any, 0, len(rows))
	for _, raw := range rows {
		rec, ok := ClassifyRow(raw).Record(fields)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// Series describes where a metric's sample array lives in its payload and
// the field names of its positional form.
type Series struct {
	Name   string
	Path   []string
	Fields []string
}

// Positional field lists for each array-shaped metric.
var (
	BodyBatterySeries   = Series{Name: "body_battery", Path: []string{"0", "bodyBatteryValuesArray"}, Fields: []string{"timestamp", "value"}}
	StressSeries        = Series{Name: "stress", Path: []string{"stressValuesArray"}, Fields: []string{"timestamp", "stressLevel"}}
	HeartRateSeries     = Series{Name: "heart_rate", Path: []string{"heartRateValues"}, Fields: []string{"timestamp", "heartRate"}}
	HRVSeries           = Series{Name: "hrv", Path: []string{"hrvReadings"}, Fields: []string{"readingTimeGMT", "hrvValue"}}
	BloodPressureSeries = Series{Name: "blood_pressure", Path: []string{"measurementSummaries"}, Fields: []string{"measurementTimestampLocal", "systolic", "diastolic", "pulse"}}
)

// Rows finds the sample array of s inside payload. A "0" path step selects
// the first element of a list. Anything missing yields an empty slice.
func (s Series) Rows(payload any) []any {
	node := payload
	for _, step := range s.Path {
		switch n := node.(type) {
		case map[string]any:
			node = n[step]
		case []any:
			if step != "0" || len(n) == 0 {
				return []any{}
			}
			node = n[0]
		default:
			return []any{}
		}
	}
	rows, ok := node.([]any)
	if !ok {
		return []any{}
	}
	return rows
}
