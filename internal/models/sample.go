package models

import "time"

// MetricSample is one cleaned time-series point. Value is never negative.
type MetricSample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ExtremalPair holds the lowest and highest valued samples of a series.
// Both are nil only when the series was empty.
type ExtremalPair struct {
	Min *MetricSample `json:"min"`
	Max *MetricSample `json:"max"`
}

// BedWake holds the chronologically first and last samples of a
// sleep-scoped series.
type BedWake struct {
	Bed  MetricSample `json:"bed"`
	Wake MetricSample `json:"wake"`
}
