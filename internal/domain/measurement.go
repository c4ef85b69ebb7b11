package domain

import (
	"context"
	"time"
)

// DayLayout is the business-date format used for Measurement.Day.
const DayLayout = "2006-01-02"

// Measurement is a single body-weight reading. Day is the local business
// date the reading belongs to; CreatedAt breaks ties within a day.
type Measurement struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
}

// MeasurementRepository is the port for measurement persistence.
type MeasurementRepository interface {
	// AddMeasurement stores a reading whose Day is createdAt's calendar date
	// in createdAt's location.
	AddMeasurement(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error)
	DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error)
	LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*Measurement, error)
	ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]Measurement, error)
	// ListMeasurementsSince returns entries whose Day is >= sinceDay, ordered
	// by Day descending, then CreatedAt descending.
	ListMeasurementsSince(ctx context.Context, userID int64, sinceDay string) ([]Measurement, error)
}
