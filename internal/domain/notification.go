package domain

import (
	"context"
	"time"
)

// Notification kinds.
const (
	NotificationTreatSpin     = "treat_spin"
	NotificationTreatEligible = "treat_eligible"
	NotificationBonusDone     = "bonus_completed"
)

// Notification is a persisted, user-visible message.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NotificationRepository is the port for notification persistence.
type NotificationRepository interface {
	AddNotification(ctx context.Context, n Notification) (int64, error)
	ListRecentNotifications(ctx context.Context, userID int64, limit int) ([]Notification, error)
	UnreadNotificationCount(ctx context.Context, userID int64) (int, error)
	// MarkNotificationsRead marks the given ids read, or every unread
	// notification when ids is empty. It returns the number of rows changed.
	MarkNotificationsRead(ctx context.Context, userID int64, ids []int64, at time.Time) (int, error)
}
