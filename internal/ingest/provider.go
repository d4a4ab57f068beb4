// Package ingest holds the types shared by provider-specific assemblers.
package ingest

import (
	"context"
	"time"
)

// Payloads holds one day's raw provider responses, decoded from JSON but
// otherwise untouched. A nil field means the provider returned nothing.
type Payloads struct {
	Sleep             any `json:"sleep"`
	BodyBattery       any `json:"body_battery"`
	Stress            any `json:"stress"`
	HeartRate         any `json:"heart_rate"`
	HRV               any `json:"hrv"`
	BloodPressure     any `json:"blood_pressure"`
	BloodPressurePrev any `json:"blood_pressure_prev"`
}

// Source retrieves the raw payloads for one calendar day.
type Source interface {
	Payloads(ctx context.Context, day time.Time) (*Payloads, error)
}

// Result holds the outcome of an assemble operation.
type Result struct {
	Date          string         `json:"date"`
	RowsAdapted   map[string]int `json:"rows_adapted"`
	RowsDropped   int            `json:"rows_dropped"`
	LeavesWritten int            `json:"leaves_written"`
}
