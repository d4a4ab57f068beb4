// Package pipeline runs one calendar day through fetch, normalization,
// row building and the sinks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/vitalsync/internal/ingest"
)

// Provider is the per-metric retrieval surface of the wearable API.
// *connect.Client satisfies it.
type Provider interface {
	Sleep(ctx context.Context, day time.Time) (any, error)
	BodyBattery(ctx context.Context, day time.Time) (any, error)
	Stress(ctx context.Context, day time.Time) (any, error)
	HeartRate(ctx context.Context, day time.Time) (any, error)
	HRV(ctx context.Context, day time.Time) (any, error)
	BloodPressure(ctx context.Context, start, end time.Time) (any, error)
}

// Fetcher collects the raw payloads that make up one day's document.
type Fetcher struct {
	provider Provider
	log      *slog.Logger
}

func NewFetcher(provider Provider, log *slog.Logger) *Fetcher {
	return &Fetcher{provider: provider, log: log}
}

// Payloads fetches sleep and HRV for day, the full-day body battery, stress
// and heart-rate series for the day before (the night's sleep starts
// there), and blood pressure for both days.
func (f *Fetcher) Payloads(ctx context.Context, day time.Time) (*ingest.Payloads, error) {
	prev := day.AddDate(0, 0, -1)
	p := &ingest.Payloads{}

	steps := []struct {
		name string
		dst  *any
		get  func() (any, error)
	}{
		{"sleep", &p.Sleep, func() (any, error) { return f.provider.Sleep(ctx, day) }},
		{"body battery", &p.BodyBattery, func() (any, error) { return f.provider.BodyBattery(ctx, prev) }},
		{"stress", &p.Stress, func() (any, error) { return f.provider.Stress(ctx, prev) }},
		{"heart rate", &p.HeartRate, func() (any, error) { return f.provider.HeartRate(ctx, prev) }},
		{"hrv", &p.HRV, func() (any, error) { return f.provider.HRV(ctx, day) }},
		{"blood pressure", &p.BloodPressure, func() (any, error) { return f.provider.BloodPressure(ctx, day, day) }},
		{"previous blood pressure", &p.BloodPressurePrev, func() (any, error) { return f.provider.BloodPressure(ctx, prev, prev) }},
	}
	for _, s := range steps {
		v, err := s.get()
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", s.name, err)
		}
		if v == nil {
			f.log.Debug("provider returned no data", "metric", s.name, "date", day.Format(time.DateOnly))
		}
		*s.dst = v
	}
	return p, nil
}

var _ ingest.Source = (*Fetcher)(nil)
