package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

func TestGetDaily_InvalidInput(t *testing.T) {
	svc := NewProgressService(&mockMeasurementRepo{}, 14, clock.Real{})
	if _, err := svc.GetDaily(context.Background(), 1, 7, "stones"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("bad unit: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.GetDaily(context.Background(), 1, 0, "kg"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero days: expected ErrInvalidArgument, got %v", err)
	}
}

func TestGetDaily_ClampsTo366(t *testing.T) {
	svc := NewProgressService(&mockMeasurementRepo{}, 14, clock.Fixed{T: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)})
	points, err := svc.GetDaily(context.Background(), 1, 1000, "kg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(points) != 366 {
		t.Errorf("expected 366 points, got %d", len(points))
	}
}

func TestGetDaily_SeriesAndTrend(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	var since string
	repo := &mockMeasurementRepo{
		sinceFn: func(_ context.Context, _ int64, day string) ([]domain.Measurement, error) {
			since = day
			return []domain.Measurement{
				{Day: "2026-03-15", Value: 78, Unit: "kg", CreatedAt: now},
				{Day: "2026-03-15", Value: 90, Unit: "kg", CreatedAt: now.Add(-time.Hour)},
				{Day: "2026-03-13", Value: 80, Unit: "kg"},
			}, nil
		},
	}
	svc := NewProgressService(repo, 3, clock.Fixed{T: now})
	points, err := svc.GetDaily(context.Background(), 1, 4, "lb")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if since != "2026-03-12" {
		t.Errorf("expected query from 2026-03-12, got %s", since)
	}
	if len(points) != 4 || points[0].Day != "2026-03-12" || points[3].Day != "2026-03-15" {
		t.Fatalf("unexpected days %+v", points)
	}
	if points[0].Weight != nil || points[0].Trend != nil {
		t.Errorf("day before first reading must be empty: %+v", points[0])
	}
	if points[2].Weight != nil || points[2].Trend == nil {
		t.Errorf("gap day should carry the trend only: %+v", points[2])
	}
	if w := points[3].Weight; w == nil || w.Unit != "lb" || math.Abs(w.Value-domain.ConvertWeight(78, "kg", "lb")) > 1e-9 {
		t.Errorf("expected latest reading of the day in lb, got %+v", w)
	}
	// alpha = 0.5: 80 then 0.5*78 + 0.5*80 = 79.
	wantTrend := domain.ConvertWeight(79, "kg", "lb")
	if tr := points[3].Trend; tr == nil || math.Abs(*tr-wantTrend) > 1e-9 {
		t.Errorf("expected trend %.3f, got %v", wantTrend, tr)
	}
}
