// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu            sync.Mutex
	measurements  []domain.Measurement
	items         []domain.TreatItem
	spins         []domain.TreatSpin
	notifications []domain.Notification
	users         []*domain.User
	sessions      map[string]*domain.Session

	lastID int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var (
	_ domain.MeasurementRepository  = (*DB)(nil)
	_ domain.TreatItemRepository    = (*DB)(nil)
	_ domain.SpinRepository         = (*DB)(nil)
	_ domain.NotificationRepository = (*DB)(nil)
	_ domain.UserRepository         = (*DB)(nil)
	_ domain.SessionRepository      = (*SessionRepo)(nil)
)

// nextID must be called with mu held. IDs are unique across tables.
func (db *DB) nextID() int64 {
	db.lastID++
	return db.lastID
}

// --- MeasurementRepository ---

// AddMeasurement adds a measurement dated by createdAt's calendar day.
func (db *DB) AddMeasurement(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := db.nextID()
	db.measurements = append(db.measurements, domain.Measurement{
		ID:        id,
		UserID:    userID,
		Day:       createdAt.Format(domain.DayLayout),
		Value:     value,
		Unit:      unit,
		CreatedAt: createdAt,
	})
	return id, nil
}

// DeleteLatestMeasurement deletes the most recent measurement.
func (db *DB) DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mine := db.userMeasurements(userID)
	if len(mine) == 0 {
		return false, nil
	}
	latest := mine[0].ID
	db.measurements = slices.DeleteFunc(db.measurements, func(m domain.Measurement) bool { return m.ID == latest })
	return true, nil
}

// LatestMeasurementForLocalDay returns the latest measurement for the given day.
func (db *DB) LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.Measurement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, m := range db.userMeasurements(userID) {
		if m.Day == localDay {
			return &m, nil
		}
	}
	return nil, nil
}

// ListRecentMeasurements lists the most recent measurements.
func (db *DB) ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := db.userMeasurements(userID)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListMeasurementsSince lists measurements on or after sinceDay, newest first.
func (db *DB) ListMeasurementsSince(ctx context.Context, userID int64, sinceDay string) ([]domain.Measurement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	all := db.userMeasurements(userID)
	// Sorted by day descending, so the match is a prefix.
	n := 0
	for n < len(all) && all[n].Day >= sinceDay {
		n++
	}
	return all[:n], nil
}

// userMeasurements returns a sorted copy: day desc, then created_at desc.
func (db *DB) userMeasurements(userID int64) []domain.Measurement {
	out := make([]domain.Measurement, 0)
	for _, m := range db.measurements {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b domain.Measurement) int {
		return cmp.Or(
			cmp.Compare(b.Day, a.Day),
			b.CreatedAt.Compare(a.CreatedAt),
			cmp.Compare(b.ID, a.ID),
		)
	})
	return out
}

// --- TreatItemRepository ---

// AddTreatItem adds a catalogue entry.
func (db *DB) AddTreatItem(ctx context.Context, item domain.TreatItem) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	item.ID = db.nextID()
	db.items = append(db.items, item)
	return item.ID, nil
}

// ListTreatItems lists the catalogue in creation order.
func (db *DB) ListTreatItems(ctx context.Context, userID int64) ([]domain.TreatItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.TreatItem, 0)
	for _, it := range db.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

// DeleteTreatItem removes a catalogue entry and clears spin references to it.
func (db *DB) DeleteTreatItem(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	before := len(db.items)
	db.items = slices.DeleteFunc(db.items, func(it domain.TreatItem) bool {
		return it.UserID == userID && it.ID == id
	})
	if len(db.items) == before {
		return false, nil
	}
	for i := range db.spins {
		if ref := db.spins[i].TreatItemID; ref != nil && *ref == id {
			db.spins[i].TreatItemID = nil
		}
	}
	return true, nil
}

// --- SpinRepository ---

// CreateSpin stores a spin.
func (db *DB) CreateSpin(ctx context.Context, spin domain.TreatSpin) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	spin.ID = db.nextID()
	db.spins = append(db.spins, spin)
	return spin.ID, nil
}

// LatestSpin returns the most recent spin, or nil.
func (db *DB) LatestSpin(ctx context.Context, userID int64) (*domain.TreatSpin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mine := db.userSpins(userID)
	if len(mine) == 0 {
		return nil, nil
	}
	return &mine[0], nil
}

// ListSpinsSince lists spins created at or after since, newest first.
func (db *DB) ListSpinsSince(ctx context.Context, userID int64, since time.Time) ([]domain.TreatSpin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mine := db.userSpins(userID)
	n := 0
	for n < len(mine) && !mine[n].CreatedAt.Before(since) {
		n++
	}
	return mine[:n], nil
}

// ListRecentSpins lists up to limit spins, newest first.
func (db *DB) ListRecentSpins(ctx context.Context, userID int64, limit int) ([]domain.TreatSpin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	mine := db.userSpins(userID)
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

// GetSpin returns a spin, or nil.
func (db *DB) GetSpin(ctx context.Context, userID, id int64) (*domain.TreatSpin, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range db.spins {
		if s.UserID == userID && s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

// SetBonusCompleted updates a spin's bonus flag.
func (db *DB) SetBonusCompleted(ctx context.Context, userID, id int64, completed bool) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.spins {
		if db.spins[i].UserID == userID && db.spins[i].ID == id {
			db.spins[i].BonusCompleted = completed
			return true, nil
		}
	}
	return false, nil
}

func (db *DB) userSpins(userID int64) []domain.TreatSpin {
	out := make([]domain.TreatSpin, 0)
	for _, s := range db.spins {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b domain.TreatSpin) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return out
}

// --- NotificationRepository ---

// AddNotification stores a notification.
func (db *DB) AddNotification(ctx context.Context, n domain.Notification) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n.ID = db.nextID()
	n.ReadAt = nil
	db.notifications = append(db.notifications, n)
	return n.ID, nil
}

// ListRecentNotifications lists up to limit notifications, newest first.
func (db *DB) ListRecentNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Notification, 0)
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b domain.Notification) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UnreadNotificationCount counts unread notifications.
func (db *DB) UnreadNotificationCount(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	count := 0
	for _, n := range db.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// MarkNotificationsRead marks ids (or all, when empty) read.
func (db *DB) MarkNotificationsRead(ctx context.Context, userID int64, ids []int64, at time.Time) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	changed := 0
	for i := range db.notifications {
		n := &db.notifications[i]
		if n.UserID != userID || n.ReadAt != nil {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, n.ID) {
			continue
		}
		readAt := at
		n.ReadAt = &readAt
		changed++
	}
	return changed, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	u := &domain.User{
		ID:           db.nextID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
