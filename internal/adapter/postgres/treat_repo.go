package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

const (
	itemCols = "id, user_id, name, photo_url, kcal_hint, created_at"
	spinCols = "id, user_id, treat_item_id, treat_name, treat_photo_url, treat_kcal_hint, portion, bonus_minutes, bonus_completed, seed, created_at"
)

// AddTreatItem inserts a catalogue entry.
func (d *DB) AddTreatItem(ctx context.Context, item domain.TreatItem) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO treat_items(user_id, name, photo_url, kcal_hint, created_at) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		item.UserID, item.Name, item.PhotoURL, nullInt(item.KcalHint), item.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListTreatItems returns the catalogue in creation order.
func (d *DB) ListTreatItems(ctx context.Context, userID int64) ([]domain.TreatItem, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+itemCols+" FROM treat_items WHERE user_id=$1 ORDER BY id ASC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.TreatItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeleteTreatItem removes a catalogue entry. Spins referencing it keep
// their snapshot and lose the reference.
func (d *DB) DeleteTreatItem(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM treat_items WHERE user_id=$1 AND id=$2;", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CreateSpin inserts a spin.
func (d *DB) CreateSpin(ctx context.Context, s domain.TreatSpin) (int64, error) {
	var id int64
	var itemID sql.NullInt64
	if s.TreatItemID != nil {
		itemID = sql.NullInt64{Int64: *s.TreatItemID, Valid: true}
	}
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO treat_spins(user_id, treat_item_id, treat_name, treat_photo_url, treat_kcal_hint, portion, bonus_minutes, bonus_completed, seed, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;",
		s.UserID, itemID, s.TreatName, s.TreatPhotoURL, nullInt(s.TreatKcalHint), s.Portion, s.BonusMinutes, s.BonusCompleted, s.Seed, s.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// LatestSpin returns the most recent spin, or nil.
func (d *DB) LatestSpin(ctx context.Context, userID int64) (*domain.TreatSpin, error) {
	s, err := scanSpin(d.sql.QueryRowContext(ctx,
		"SELECT "+spinCols+" FROM treat_spins WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1;", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSpinsSince returns spins created at or after since, newest first.
func (d *DB) ListSpinsSince(ctx context.Context, userID int64, since time.Time) ([]domain.TreatSpin, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+spinCols+" FROM treat_spins WHERE user_id=$1 AND created_at >= $2 ORDER BY created_at DESC, id DESC;",
		userID, since.UTC())
	if err != nil {
		return nil, err
	}
	return collectSpins(rows)
}

// ListRecentSpins returns up to limit spins, newest first.
func (d *DB) ListRecentSpins(ctx context.Context, userID int64, limit int) ([]domain.TreatSpin, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+spinCols+" FROM treat_spins WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	return collectSpins(rows)
}

// GetSpin returns one spin, or nil.
func (d *DB) GetSpin(ctx context.Context, userID, id int64) (*domain.TreatSpin, error) {
	s, err := scanSpin(d.sql.QueryRowContext(ctx,
		"SELECT "+spinCols+" FROM treat_spins WHERE user_id=$1 AND id=$2;", userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetBonusCompleted updates the only mutable spin field.
func (d *DB) SetBonusCompleted(ctx context.Context, userID, id int64, completed bool) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE treat_spins SET bonus_completed=$3 WHERE user_id=$1 AND id=$2;", userID, id, completed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanItem(r rowScanner) (domain.TreatItem, error) {
	var it domain.TreatItem
	var kcal sql.NullInt32
	if err := r.Scan(&it.ID, &it.UserID, &it.Name, &it.PhotoURL, &kcal, &it.CreatedAt); err != nil {
		return it, err
	}
	it.KcalHint = intFromNull(kcal)
	return it, nil
}

func scanSpin(r rowScanner) (domain.TreatSpin, error) {
	var s domain.TreatSpin
	var itemID sql.NullInt64
	var kcal sql.NullInt32
	if err := r.Scan(&s.ID, &s.UserID, &itemID, &s.TreatName, &s.TreatPhotoURL, &kcal,
		&s.Portion, &s.BonusMinutes, &s.BonusCompleted, &s.Seed, &s.CreatedAt); err != nil {
		return s, err
	}
	if itemID.Valid {
		v := itemID.Int64
		s.TreatItemID = &v
	}
	s.TreatKcalHint = intFromNull(kcal)
	return s, nil
}

func collectSpins(rows *sql.Rows) ([]domain.TreatSpin, error) {
	defer rows.Close()
	out := make([]domain.TreatSpin, 0)
	for rows.Next() {
		s, err := scanSpin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func intFromNull(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}
