package domain

import (
	"context"
	"time"
)

// SeriesPoint is one bucket of a series. Bucket is the hour (0-23), the day
// of month (1-31) or the month (1-12).
type SeriesPoint struct {
	Bucket int     `json:"bucket"`
	Energy float64 `json:"energy"`
}

type SeriesResult struct {
	RoomID      string        `json:"room_id"`
	Period      PeriodKind    `json:"period"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	Points      []SeriesPoint `json:"points"`
}

type SummaryResult struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Peak    float64 `json:"peak"`
}

type ComparisonResult struct {
	Current          float64 `json:"current"`
	Previous         float64 `json:"previous"`
	Difference       float64 `json:"difference"`
	PercentageChange float64 `json:"percentage_change"`
}

// Breakdown maps a device type to its energy. Types without readings in the
// window are absent.
type Breakdown map[string]float64

type SeriesRequest struct {
	RoomID string
	Period string

	// Date pins the reference day (YYYY-MM-DD); empty means today.
	Date string
}

type SummaryRequest struct {
	// RoomID empty aggregates across all rooms.
	RoomID string
	Period string
	Date   string
}

type Service interface {
	Series(ctx context.Context, req SeriesRequest) (*SeriesResult, error)
	Summary(ctx context.Context, req SummaryRequest) (*SummaryResult, error)
	Compare(ctx context.Context, req SummaryRequest) (*ComparisonResult, error)
	ByDeviceType(ctx context.Context, req SummaryRequest) (Breakdown, error)
}
