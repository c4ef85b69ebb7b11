package app

import (
	"context"
	"sync"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

type mockMeasurementRepo struct {
	addFn    func(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error)
	deleteFn func(ctx context.Context, userID int64) (bool, error)
	latestFn func(ctx context.Context, userID int64, day string) (*domain.Measurement, error)
	listFn   func(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error)
	sinceFn  func(ctx context.Context, userID int64, sinceDay string) ([]domain.Measurement, error)
}

func (m *mockMeasurementRepo) AddMeasurement(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, v, u, t)
	}
	return 1, nil
}

func (m *mockMeasurementRepo) DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return false, nil
}

func (m *mockMeasurementRepo) LatestMeasurementForLocalDay(ctx context.Context, userID int64, day string) (*domain.Measurement, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockMeasurementRepo) ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockMeasurementRepo) ListMeasurementsSince(ctx context.Context, userID int64, sinceDay string) ([]domain.Measurement, error) {
	if m.sinceFn != nil {
		return m.sinceFn(ctx, userID, sinceDay)
	}
	return nil, nil
}

type mockItemRepo struct {
	addFn    func(ctx context.Context, item domain.TreatItem) (int64, error)
	listFn   func(ctx context.Context, userID int64) ([]domain.TreatItem, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockItemRepo) AddTreatItem(ctx context.Context, item domain.TreatItem) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, item)
	}
	return 1, nil
}

func (m *mockItemRepo) ListTreatItems(ctx context.Context, userID int64) ([]domain.TreatItem, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockItemRepo) DeleteTreatItem(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockSpinRepo struct {
	createFn   func(ctx context.Context, spin domain.TreatSpin) (int64, error)
	latestFn   func(ctx context.Context, userID int64) (*domain.TreatSpin, error)
	sinceFn    func(ctx context.Context, userID int64, since time.Time) ([]domain.TreatSpin, error)
	recentFn   func(ctx context.Context, userID int64, limit int) ([]domain.TreatSpin, error)
	getFn      func(ctx context.Context, userID, id int64) (*domain.TreatSpin, error)
	setBonusFn func(ctx context.Context, userID, id int64, completed bool) (bool, error)
}

func (m *mockSpinRepo) CreateSpin(ctx context.Context, spin domain.TreatSpin) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, spin)
	}
	return 1, nil
}

func (m *mockSpinRepo) LatestSpin(ctx context.Context, userID int64) (*domain.TreatSpin, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSpinRepo) ListSpinsSince(ctx context.Context, userID int64, since time.Time) ([]domain.TreatSpin, error) {
	if m.sinceFn != nil {
		return m.sinceFn(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockSpinRepo) ListRecentSpins(ctx context.Context, userID int64, limit int) ([]domain.TreatSpin, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockSpinRepo) GetSpin(ctx context.Context, userID, id int64) (*domain.TreatSpin, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockSpinRepo) SetBonusCompleted(ctx context.Context, userID, id int64, completed bool) (bool, error) {
	if m.setBonusFn != nil {
		return m.setBonusFn(ctx, userID, id, completed)
	}
	return true, nil
}

type mockNotificationRepo struct {
	addFn    func(ctx context.Context, n domain.Notification) (int64, error)
	listFn   func(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	unreadFn func(ctx context.Context, userID int64) (int, error)
	markFn   func(ctx context.Context, userID int64, ids []int64, at time.Time) (int, error)
}

func (m *mockNotificationRepo) AddNotification(ctx context.Context, n domain.Notification) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, n)
	}
	return 1, nil
}

func (m *mockNotificationRepo) ListRecentNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepo) UnreadNotificationCount(ctx context.Context, userID int64) (int, error) {
	if m.unreadFn != nil {
		return m.unreadFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkNotificationsRead(ctx context.Context, userID int64, ids []int64, at time.Time) (int, error) {
	if m.markFn != nil {
		return m.markFn(ctx, userID, ids, at)
	}
	return 0, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ int64, evt notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
		if e.Type == notify.EventRefresh {
			out[i] += ":" + e.Resource
		}
	}
	return out
}
