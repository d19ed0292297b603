package database

import (
	"context"
	"database/sql"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const notificationSelect = `
	SELECT id, type, title, message, bin_id, sensor_id, sent, sent_at, is_read, read_at, created_at
	FROM notifications`

func CreateNotification(ctx context.Context, q sqlx.ExtContext, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO notifications (id, type, title, message, bin_id, sensor_id, sent, sent_at, is_read, read_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), n.ID, n.Type, n.Title, n.Message, n.BinID, n.SensorID, n.Sent, n.SentAt, n.Read, n.ReadAt, n.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}

// HasRecentNotification reports whether a notification of kind for the given
// bin or sensor was created at or after since. Exactly one of binID and
// sensorID is expected to be set.
func HasRecentNotification(ctx context.Context, q sqlx.ExtContext, kind string, binID, sensorID *string, since int64) (bool, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE type = ? AND created_at >= ?`
	args := []interface{}{kind, since}
	if binID != nil {
		query += ` AND bin_id = ?`
		args = append(args, *binID)
	}
	if sensorID != nil {
		query += ` AND sensor_id = ?`
		args = append(args, *sensorID)
	}

	var count int
	if err := sqlx.GetContext(ctx, q, &count, q.Rebind(query), args...); err != nil {
		return false, errors.Wrap(err, "failed to check recent notifications")
	}
	return count > 0, nil
}

func MarkNotificationSent(ctx context.Context, q sqlx.ExtContext, id string, at int64) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE notifications SET sent = ?, sent_at = ? WHERE id = ?`), true, at, id)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification sent")
	}
	return requireRow(result)
}

func MarkNotificationRead(ctx context.Context, q sqlx.ExtContext, id string) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE notifications SET is_read = ?, read_at = ? WHERE id = ?`), true, time.Now().Unix(), id)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	return requireRow(result)
}

// ListNotifications returns the newest notifications first. unreadOnly hides
// notifications already marked read.
func ListNotifications(ctx context.Context, q sqlx.ExtContext, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := notificationSelect
	var args []interface{}
	if unreadOnly {
		query += ` WHERE is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	notifications := []models.Notification{}
	if err := sqlx.SelectContext(ctx, q, &notifications, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return notifications, nil
}

func GetNotification(ctx context.Context, q sqlx.ExtContext, id string) (*models.Notification, error) {
	var n models.Notification
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(notificationSelect+` WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get notification")
	}
	return &n, nil
}
