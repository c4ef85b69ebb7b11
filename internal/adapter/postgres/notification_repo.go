package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

// AddNotification inserts a notification.
func (d *DB) AddNotification(ctx context.Context, n domain.Notification) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO notifications(user_id, kind, title, body, created_at) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		n.UserID, n.Kind, n.Title, n.Body, n.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListRecentNotifications returns up to limit notifications, newest first.
func (d *DB) ListRecentNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, kind, title, body, read_at, created_at FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Notification, 0, limit)
	for rows.Next() {
		var n domain.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadNotificationCount counts notifications without read_at.
func (d *DB) UnreadNotificationCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read_at IS NULL;", userID).Scan(&n)
	return n, err
}

// MarkNotificationsRead stamps read_at on the given unread notifications, or
// on all of them when ids is empty.
func (d *DB) MarkNotificationsRead(ctx context.Context, userID int64, ids []int64, at time.Time) (int, error) {
	var (
		res sql.Result
		err error
	)
	if len(ids) == 0 {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE notifications SET read_at=$2 WHERE user_id=$1 AND read_at IS NULL;", userID, at.UTC())
	} else {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE notifications SET read_at=$2 WHERE user_id=$1 AND read_at IS NULL AND id = ANY($3);",
			userID, at.UTC(), pq.Array(ids))
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
