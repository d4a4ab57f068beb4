package summary

import (
	"time"

	"github.com/claude/vitalsync/internal/models"
)

// Extremes returns the lowest and highest valued samples. Ties go to the
// first sample in input order, for min and max independently. An empty
// series yields a pair of nils; unlike BedAndWake this is not an error,
// because full-day series are routinely empty.
func Extremes(samples []models.MetricSample) models.ExtremalPair {
	if len(samples) == 0 {
		return models.ExtremalPair{}
	}
	lo, hi := 0, 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Value < samples[lo].Value {
			lo = i
		}
		if samples[i].Value > samples[hi].Value {
			hi = i
		}
	}
	low, high := samples[lo], samples[hi]
	return models.ExtremalPair{Min: &low, Max: &high}
}

// BedAndWake returns the chronologically first and last samples of a
// sleep-scoped series. Callers expect such a series to be populated, so an
// empty one is models.ErrNoSamples.
func BedAndWake(samples []models.MetricSample) (models.BedWake, error) {
	if len(samples) == 0 {
		return models.BedWake{}, models.ErrNoSamples
	}
	bed, wake := 0, 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[bed].Time) {
			bed = i
		}
		if samples[i].Time.After(samples[wake].Time) {
			wake = i
		}
	}
	return models.BedWake{Bed: samples[bed], Wake: samples[wake]}, nil
}

// ClosestTo returns the first sample whose time is nearest to target.
func ClosestTo(samples []models.MetricSample, target time.Time) (models.MetricSample, error) {
	if len(samples) == 0 {
		return models.MetricSample{}, models.ErrNoSamples
	}
	best := 0
	bestDist := absDuration(samples[0].Time.Sub(target))
	for i := 1; i < len(samples); i++ {
		if d := absDuration(samples[i].Time.Sub(target)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return samples[best], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
