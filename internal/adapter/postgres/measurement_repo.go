package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

const measurementCols = "id, user_id, day, value, unit, created_at"

// AddMeasurement inserts a measurement. Its business day is createdAt's
// calendar date in createdAt's location.
func (d *DB) AddMeasurement(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO measurements(user_id, day, value, unit, created_at) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		userID, createdAt.Format(domain.DayLayout), value, unit, createdAt.UTC(),
	).Scan(&id)
	return id, err
}

// DeleteLatestMeasurement removes the most recent measurement.
func (d *DB) DeleteLatestMeasurement(ctx context.Context, userID int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM measurements WHERE id = (SELECT id FROM measurements WHERE user_id=$1 ORDER BY day DESC, created_at DESC, id DESC LIMIT 1);",
		userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LatestMeasurementForLocalDay returns the most recent measurement recorded
// for a business day, or nil.
func (d *DB) LatestMeasurementForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.Measurement, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+measurementCols+" FROM measurements WHERE user_id=$1 AND day=$2 ORDER BY created_at DESC, id DESC LIMIT 1;",
		userID, localDay,
	)
	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListRecentMeasurements returns the most recent measurements up to limit.
func (d *DB) ListRecentMeasurements(ctx context.Context, userID int64, limit int) ([]domain.Measurement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+measurementCols+" FROM measurements WHERE user_id=$1 ORDER BY day DESC, created_at DESC, id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	return collectMeasurements(rows)
}

// ListMeasurementsSince returns measurements on or after sinceDay, newest first.
func (d *DB) ListMeasurementsSince(ctx context.Context, userID int64, sinceDay string) ([]domain.Measurement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+measurementCols+" FROM measurements WHERE user_id=$1 AND day >= $2 ORDER BY day DESC, created_at DESC, id DESC;",
		userID, sinceDay)
	if err != nil {
		return nil, err
	}
	return collectMeasurements(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(r rowScanner) (domain.Measurement, error) {
	var m domain.Measurement
	err := r.Scan(&m.ID, &m.UserID, &m.Day, &m.Value, &m.Unit, &m.CreatedAt)
	return m, err
}

func collectMeasurements(rows *sql.Rows) ([]domain.Measurement, error) {
	defer rows.Close()
	out := make([]domain.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
