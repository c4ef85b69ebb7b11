package domain

import (
	"context"
	"time"
)

// TreatItem is an entry in a user's personal treat catalogue.
type TreatItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	KcalHint  *int      `json:"kcalHint,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TreatSpin records one reward event. The treat fields are a snapshot of the
// item at spin time; TreatItemID may point at a since-deleted item.
type TreatSpin struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	TreatItemID    *int64    `json:"treatItemId,omitempty"`
	TreatName      string    `json:"treatName"`
	TreatPhotoURL  string    `json:"treatPhotoUrl,omitempty"`
	TreatKcalHint  *int      `json:"treatKcalHint,omitempty"`
	Portion        string    `json:"portion"`
	BonusMinutes   int       `json:"bonusMinutes"`
	BonusCompleted bool      `json:"bonusCompleted"`
	Seed           string    `json:"seed"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TreatItemRepository is the port for the treat catalogue.
type TreatItemRepository interface {
	AddTreatItem(ctx context.Context, item TreatItem) (int64, error)
	ListTreatItems(ctx context.Context, userID int64) ([]TreatItem, error)
	DeleteTreatItem(ctx context.Context, userID, id int64) (bool, error)
}

// SpinRepository is the port for spin history.
type SpinRepository interface {
	CreateSpin(ctx context.Context, spin TreatSpin) (int64, error)
	LatestSpin(ctx context.Context, userID int64) (*TreatSpin, error)
	// ListSpinsSince returns spins created at or after since, newest first.
	ListSpinsSince(ctx context.Context, userID int64, since time.Time) ([]TreatSpin, error)
	ListRecentSpins(ctx context.Context, userID int64, limit int) ([]TreatSpin, error)
	GetSpin(ctx context.Context, userID, id int64) (*TreatSpin, error)
	SetBonusCompleted(ctx context.Context, userID, id int64, completed bool) (bool, error)
}
