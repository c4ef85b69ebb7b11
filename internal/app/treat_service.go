package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/treats"
)

const (
	defaultSpinLimit = 20
	maxSpinLimit     = 100
	maxItemName      = 80
)

// ErrNoTreatItems is returned by Spin when the catalogue is empty.
var ErrNoTreatItems = fmt.Errorf("%w: add at least one treat item before spinning", domain.ErrInvalidArgument)

// NotEligibleError is returned by Spin when the eligibility gate is closed.
type NotEligibleError struct {
	Eligibility treats.Eligibility
}

func (e *NotEligibleError) Error() string {
	return "not eligible to spin: " + e.Eligibility.Reason
}

// TreatRepos groups the repositories TreatService reads and writes.
type TreatRepos struct {
	Users        domain.UserRepository
	Measurements domain.MeasurementRepository
	Items        domain.TreatItemRepository
	Spins        domain.SpinRepository
}

// TreatService decides eligibility, performs spins and manages the treat
// catalogue.
type TreatService struct {
	repos TreatRepos
	notes *NotificationService
	cfg   treats.Config
	clock clock.Clock

	// Serialises check-then-create so two concurrent spins cannot both pass
	// the gate within one process.
	spinMu sync.Mutex
}

// NewTreatService creates a TreatService. notes may be nil, in which case no
// notifications are produced.
func NewTreatService(repos TreatRepos, notes *NotificationService, cfg treats.Config, clk clock.Clock) *TreatService {
	return &TreatService{repos: repos, notes: notes, cfg: cfg, clock: clk}
}

// ComputeEligibility evaluates whether userID may spin now. Ineligibility is
// a result, not an error; only a missing user or a storage failure errors.
func (s *TreatService) ComputeEligibility(ctx context.Context, userID int64) (treats.Eligibility, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return treats.Eligibility{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return treats.Eligibility{}, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}

	now := s.clock.Now()
	th := s.cfg.Thresholds
	measurements, err := s.repos.Measurements.ListMeasurementsSince(ctx, userID, treats.WindowStartDay(now, th.EMAWindowDays))
	if err != nil {
		return treats.Eligibility{}, fmt.Errorf("list measurements: %w", err)
	}
	last, err := s.repos.Spins.LatestSpin(ctx, userID)
	if err != nil {
		return treats.Eligibility{}, fmt.Errorf("latest spin: %w", err)
	}
	recent, err := s.repos.Spins.ListSpinsSince(ctx, userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return treats.Eligibility{}, fmt.Errorf("recent spins: %w", err)
	}

	return treats.Evaluate(treats.EligibilityInput{
		Now:          now,
		Measurements: measurements,
		LastSpin:     last,
		RecentSpins:  recent,
	}, th), nil
}

// Spin draws a treat for an eligible user and records it. clientSeed may be
// empty, in which case a fresh seed is generated.
func (s *TreatService) Spin(ctx context.Context, userID int64, clientSeed string) (*domain.TreatSpin, error) {
	s.spinMu.Lock()
	defer s.spinMu.Unlock()

	elig, err := s.ComputeEligibility(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !elig.Eligible {
		return nil, &NotEligibleError{Eligibility: elig}
	}

	items, err := s.repos.Items.ListTreatItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list treat items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoTreatItems
	}

	outcome, err := treats.Draw(len(items), s.cfg, treats.BuildSeed(clientSeed))
	if err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}
	item := items[outcome.ItemIndex]
	itemID := item.ID
	spin := domain.TreatSpin{
		UserID:        userID,
		TreatItemID:   &itemID,
		TreatName:     item.Name,
		TreatPhotoURL: item.PhotoURL,
		TreatKcalHint: item.KcalHint,
		Portion:       outcome.Portion,
		BonusMinutes:  outcome.BonusMinutes,
		Seed:          outcome.Seed,
		CreatedAt:     s.clock.Now(),
	}
	id, err := s.repos.Spins.CreateSpin(ctx, spin)
	if err != nil {
		return nil, fmt.Errorf("create spin: %w", err)
	}
	spin.ID = id

	if s.notes != nil {
		body := fmt.Sprintf("%s (%s portion)", spin.TreatName, spin.Portion)
		if spin.BonusMinutes > 0 {
			body += fmt.Sprintf(", plus %d bonus minutes of activity", spin.BonusMinutes)
		}
		if _, err := s.notes.Create(ctx, userID, domain.NotificationTreatSpin, "You won a treat!", body); err != nil {
			s.notes.logger.Warn("spin notification failed", "user_id", userID, "spin_id", id, "error", err)
		}
		s.notes.Refresh(ctx, userID, notify.ResourceTreats)
	}
	return &spin, nil
}

// ListSpins returns the most recent spins, newest first.
func (s *TreatService) ListSpins(ctx context.Context, userID int64, limit int) ([]domain.TreatSpin, error) {
	if limit <= 0 {
		limit = defaultSpinLimit
	}
	return s.repos.Spins.ListRecentSpins(ctx, userID, min(limit, maxSpinLimit))
}

// CompleteBonus marks a spin's bonus activity as done. Completing twice is a
// no-op.
func (s *TreatService) CompleteBonus(ctx context.Context, userID, spinID int64) (*domain.TreatSpin, error) {
	spin, err := s.getSpin(ctx, userID, spinID)
	if err != nil {
		return nil, err
	}
	if spin.BonusMinutes == 0 {
		return nil, fmt.Errorf("%w: spin %d has no bonus activity", domain.ErrInvalidArgument, spinID)
	}
	if spin.BonusCompleted {
		return spin, nil
	}
	ok, err := s.repos.Spins.SetBonusCompleted(ctx, userID, spinID, true)
	if err != nil {
		return nil, fmt.Errorf("complete bonus: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("spin %d: %w", spinID, domain.ErrNotFound)
	}
	spin.BonusCompleted = true

	if s.notes != nil {
		body := fmt.Sprintf("%d minutes done. Enjoy your %s!", spin.BonusMinutes, spin.TreatName)
		if _, err := s.notes.Create(ctx, userID, domain.NotificationBonusDone, "Bonus activity completed", body); err != nil {
			s.notes.logger.Warn("bonus notification failed", "user_id", userID, "spin_id", spinID, "error", err)
		}
		s.notes.Refresh(ctx, userID, notify.ResourceTreats)
	}
	return spin, nil
}

// Replay is a persisted spin next to the outcome its seed derives today.
type Replay struct {
	Spin    domain.TreatSpin `json:"spin"`
	Outcome treats.Outcome   `json:"outcome"`
	// Item is the catalogue entry at Outcome.ItemIndex, if the catalogue is
	// not empty.
	Item *domain.TreatItem `json:"item,omitempty"`
	// Matches is true when the replayed draw selects the same treat, portion
	// and bonus as the stored spin. Catalogue or configuration changes since
	// the spin make it false.
	Matches bool `json:"matches"`
}

// Replay re-derives a stored spin from its seed against the current
// catalogue and configuration.
func (s *TreatService) Replay(ctx context.Context, userID, spinID int64) (*Replay, error) {
	spin, err := s.getSpin(ctx, userID, spinID)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.Items.ListTreatItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list treat items: %w", err)
	}

	r := &Replay{Spin: *spin}
	if len(items) == 0 {
		// Portion and bonus are still reproducible without a catalogue.
		portion, perr := s.cfg.Portions.Pick(spin.Seed, treats.ScopePortion)
		bonus, berr := s.cfg.BonusMinutes.Pick(spin.Seed, treats.ScopeBonusMinutes)
		if err := errors.Join(perr, berr); err != nil {
			return nil, err
		}
		r.Outcome = treats.Outcome{Seed: spin.Seed, ItemIndex: -1, Portion: portion, BonusMinutes: bonus}
		return r, nil
	}

	outcome, err := treats.Draw(len(items), s.cfg, spin.Seed)
	if err != nil {
		return nil, fmt.Errorf("draw: %w", err)
	}
	item := items[outcome.ItemIndex]
	r.Outcome = outcome
	r.Item = &item
	r.Matches = spin.TreatItemID != nil && *spin.TreatItemID == item.ID &&
		spin.Portion == outcome.Portion && spin.BonusMinutes == outcome.BonusMinutes
	return r, nil
}

// AddItem adds a treat to the user's catalogue.
func (s *TreatService) AddItem(ctx context.Context, userID int64, name, photoURL string, kcalHint *int) (*domain.TreatItem, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxItemName {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", domain.ErrInvalidArgument, maxItemName)
	}
	if kcalHint != nil && *kcalHint < 0 {
		return nil, fmt.Errorf("%w: kcalHint must be >= 0", domain.ErrInvalidArgument)
	}
	item := domain.TreatItem{
		UserID:    userID,
		Name:      name,
		PhotoURL:  strings.TrimSpace(photoURL),
		KcalHint:  kcalHint,
		CreatedAt: s.clock.Now(),
	}
	id, err := s.repos.Items.AddTreatItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("add treat item: %w", err)
	}
	item.ID = id
	return &item, nil
}

// ListItems returns the user's catalogue in creation order, which is also
// the order spins index into.
func (s *TreatService) ListItems(ctx context.Context, userID int64) ([]domain.TreatItem, error) {
	return s.repos.Items.ListTreatItems(ctx, userID)
}

// DeleteItem removes a catalogue entry. Past spins keep their snapshot.
func (s *TreatService) DeleteItem(ctx context.Context, userID, itemID int64) error {
	ok, err := s.repos.Items.DeleteTreatItem(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete treat item: %w", err)
	}
	if !ok {
		return fmt.Errorf("treat item %d: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (s *TreatService) getSpin(ctx context.Context, userID, spinID int64) (*domain.TreatSpin, error) {
	spin, err := s.repos.Spins.GetSpin(ctx, userID, spinID)
	if err != nil {
		return nil, fmt.Errorf("get spin: %w", err)
	}
	if spin == nil {
		return nil, fmt.Errorf("spin %d: %w", spinID, domain.ErrNotFound)
	}
	return spin, nil
}
