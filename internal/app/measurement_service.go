package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/treats"
)

const (
	defaultRecentLimit = 30
	maxRecentLimit     = 200
	maxWeightValue     = 1000
)

// EligibilityChecker computes spin eligibility; TreatService implements it.
type EligibilityChecker interface {
	ComputeEligibility(ctx context.Context, userID int64) (treats.Eligibility, error)
}

// MeasurementResult is the state of today after a write.
type MeasurementResult struct {
	Day         string              `json:"day"`
	Today       *domain.Measurement `json:"today"`
	Eligibility *treats.Eligibility `json:"eligibility,omitempty"`
}

// MeasurementService encapsulates weight-tracking use cases.
type MeasurementService struct {
	repo   domain.MeasurementRepository
	elig   EligibilityChecker
	notes  *NotificationService
	clock  clock.Clock
	logger *slog.Logger
}

// NewMeasurementService creates a MeasurementService. elig and notes are
// optional.
func NewMeasurementService(repo domain.MeasurementRepository, elig EligibilityChecker, notes *NotificationService, clk clock.Clock, logger *slog.Logger) *MeasurementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeasurementService{repo: repo, elig: elig, notes: notes, clock: clk, logger: logger}
}

// Today returns the business date and the latest entry recorded for it.
func (s *MeasurementService) Today(ctx context.Context, userID int64) (*MeasurementResult, error) {
	today := s.clock.Now().Format(domain.DayLayout)
	entry, err := s.repo.LatestMeasurementForLocalDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &MeasurementResult{Day: today, Today: entry}, nil
}

// Record validates and stores a new measurement, returning today's latest
// entry and the fresh eligibility.
func (s *MeasurementService) Record(ctx context.Context, userID int64, value float64, unit string) (*MeasurementResult, error) {
	if value <= 0 || value > maxWeightValue {
		return nil, fmt.Errorf("%w: value must be > 0 and <= %d", domain.ErrInvalidArgument, maxWeightValue)
	}
	if !domain.ValidUnit(unit) {
		return nil, fmt.Errorf("%w: unit must be %q or %q", domain.ErrInvalidArgument, domain.UnitKg, domain.UnitLb)
	}

	before := s.eligibility(ctx, userID)

	now := s.clock.Now()
	if _, err := s.repo.AddMeasurement(ctx, userID, value, unit, now); err != nil {
		return nil, fmt.Errorf("add measurement: %w", err)
	}
	res, err := s.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	res.Eligibility = s.eligibility(ctx, userID)

	if s.notes != nil {
		s.notes.Refresh(ctx, userID, notify.ResourceMeasurements)
		if res.Eligibility != nil && res.Eligibility.Eligible && (before == nil || !before.Eligible) {
			if _, err := s.notes.Create(ctx, userID, domain.NotificationTreatEligible,
				"Treat unlocked", "Your weight trend earned you a treat spin."); err != nil {
				s.logger.Warn("eligibility notification failed", "user_id", userID, "error", err)
			}
		}
	}
	return res, nil
}

// ListRecent returns the most recent measurements up to limit.
func (s *MeasurementService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repo.ListRecentMeasurements(ctx, userID, min(limit, maxRecentLimit))
}

// UndoLast deletes the most recent measurement and reports whether anything
// was deleted along with the new state of today.
func (s *MeasurementService) UndoLast(ctx context.Context, userID int64) (bool, *MeasurementResult, error) {
	deleted, err := s.repo.DeleteLatestMeasurement(ctx, userID)
	if err != nil {
		return false, nil, fmt.Errorf("delete measurement: %w", err)
	}
	res, err := s.Today(ctx, userID)
	if err != nil {
		return deleted, nil, err
	}
	if deleted {
		res.Eligibility = s.eligibility(ctx, userID)
		if s.notes != nil {
			s.notes.Refresh(ctx, userID, notify.ResourceMeasurements)
		}
	}
	return deleted, res, nil
}

func (s *MeasurementService) eligibility(ctx context.Context, userID int64) *treats.Eligibility {
	if s.elig == nil {
		return nil
	}
	e, err := s.elig.ComputeEligibility(ctx, userID)
	if err != nil {
		s.logger.Warn("eligibility check failed", "user_id", userID, "error", err)
		return nil
	}
	return &e
}
