package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/clock"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
	"github.com/sahinseyfi/TombistenFite-sub001/internal/notify"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationService persists notifications and pushes live updates to
// connected clients. Push failures are logged and never fail the caller:
// clients recover through polling.
type NotificationService struct {
	repo   domain.NotificationRepository
	pub    notify.Publisher
	clock  clock.Clock
	logger *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo domain.NotificationRepository, pub notify.Publisher, clk clock.Clock, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{repo: repo, pub: pub, clock: clk, logger: logger}
}

// Create stores a notification and publishes the new unread count.
func (s *NotificationService) Create(ctx context.Context, userID int64, kind, title, body string) (*domain.Notification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	n := domain.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}
	id, err := s.repo.AddNotification(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("add notification: %w", err)
	}
	n.ID = id
	s.publishUnread(ctx, userID)
	s.Refresh(ctx, userID, notify.ResourceNotifications)
	return &n, nil
}

// List returns the most recent notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)
	return s.repo.ListRecentNotifications(ctx, userID, limit)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadNotificationCount(ctx, userID)
}

// MarkRead marks ids read (all unread when ids is empty) and publishes the
// new unread count when anything changed.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, ids []int64) (int, error) {
	changed, err := s.repo.MarkNotificationsRead(ctx, userID, ids, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	if changed > 0 {
		s.publishUnread(ctx, userID)
	}
	return changed, nil
}

// Refresh tells the user's clients that resource changed.
func (s *NotificationService) Refresh(ctx context.Context, userID int64, resource string) {
	s.publish(ctx, userID, notify.Refresh(resource, s.clock.Now()))
}

func (s *NotificationService) publishUnread(ctx context.Context, userID int64) {
	count, err := s.repo.UnreadNotificationCount(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count for push failed", "user_id", userID, "error", err)
		return
	}
	s.publish(ctx, userID, notify.UnreadCount(count, s.clock.Now()))
}

func (s *NotificationService) publish(ctx context.Context, userID int64, evt notify.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, userID, evt); err != nil {
		s.logger.Warn("publish event failed", "user_id", userID, "type", evt.Type, "error", err)
	}
}
