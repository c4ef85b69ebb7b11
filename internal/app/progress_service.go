package app

import (
	"context"
	"fmt"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/treats"
)

const maxProgressDays = 366

// ProgressService builds the weight chart series.
type ProgressService struct {
	repo      domain.MeasurementRepository
	emaWindow int
	clock     clock.Clock
}

// NewProgressService creates a ProgressService smoothing with the given EMA
// window, normally the eligibility window.
func NewProgressService(repo domain.MeasurementRepository, emaWindow int, clk clock.Clock) *ProgressService {
	return &ProgressService{repo: repo, emaWindow: emaWindow, clock: clk}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day    string       `json:"day"`
	Weight *WeightPoint `json:"weight"`
	// Trend is the smoothed weight in the requested unit. Days before the
	// first measurement have none.
	Trend *float64 `json:"trend"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GetDaily returns one point per day for the last days days (today
// included), with weights converted to the requested unit. Days without a
// reading carry the previous trend forward.
func (s *ProgressService) GetDaily(ctx context.Context, userID int64, days int, unit string) ([]DayPoint, error) {
	if !domain.ValidUnit(unit) {
		return nil, fmt.Errorf("%w: unit must be %q or %q", domain.ErrInvalidArgument, domain.UnitKg, domain.UnitLb)
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be >= 1", domain.ErrInvalidArgument)
	}
	days = min(days, maxProgressDays)

	now := s.clock.Now()
	from := treats.WindowStartDay(now, days)
	entries, err := s.repo.ListMeasurementsSince(ctx, userID, from)
	if err != nil {
		return nil, err
	}

	// Latest reading per day; entries are ordered newest first.
	latest := make(map[string]domain.Measurement, len(entries))
	for _, e := range entries {
		if _, ok := latest[e.Day]; !ok {
			latest[e.Day] = e
		}
	}

	alpha := 2 / (float64(s.emaWindow) + 1)
	var trend *float64
	start := now.AddDate(0, 0, -(days - 1))
	points := make([]DayPoint, 0, days)
	for i := range days {
		day := start.AddDate(0, 0, i).Format(domain.DayLayout)
		p := DayPoint{Day: day}
		if e, ok := latest[day]; ok {
			kg := e.Kg()
			if trend == nil {
				trend = &kg
			} else {
				next := alpha*kg + (1-alpha)*(*trend)
				trend = &next
			}
			p.Weight = &WeightPoint{Value: domain.ConvertWeight(e.Value, e.Unit, unit), Unit: unit}
		}
		if trend != nil {
			v := domain.ConvertWeight(*trend, domain.UnitKg, unit)
			p.Trend = &v
		}
		points = append(points, p)
	}
	return points, nil
}
