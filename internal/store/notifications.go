package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const notificationColumns = `id, user_id, notification_type, title, body, priority, is_read,
	action_url, metadata, created_at`

// InsertNotification inserts a notification.
func (t *Tx) InsertNotification(ctx context.Context, n model.Notification) error {
	meta, err := marshalJSON("metadata", n.Metadata)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	_, err = t.exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Body, string(n.Priority), n.IsRead,
		n.ActionURL, meta, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// GetNotification reads a notification by id.
func (t *Tx) GetNotification(ctx context.Context, id string) (model.Notification, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// MarkNotificationRead sets is_read on one notification.
func (t *Tx) MarkNotificationRead(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead sets is_read on every unread notification of a
// user and returns how many changed.
func (t *Tx) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := t.exec(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteNotification deletes a notification.
func (t *Tx) DeleteNotification(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// NotificationFilter narrows ListNotifications. Empty fields match everything.
type NotificationFilter struct {
	UserID     string
	Type       model.NotificationType
	UnreadOnly bool
	Limit      int
}

// ListNotifications returns a user's notifications, newest first.
func (t *Tx) ListNotifications(ctx context.Context, f NotificationFilter) ([]model.Notification, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ?
		  AND (? = '' OR notification_type = ?)
		  AND (? = 0 OR is_read = 0)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, f.UserID, string(f.Type), string(f.Type), f.UnreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// NotificationCounts summarizes a user's notifications.
type NotificationCounts struct {
	Total      int
	Unread     int
	ByType     map[model.NotificationType]int
	ByPriority map[model.Priority]int
}

// CountNotifications aggregates a user's notifications by type and priority.
func (t *Tx) CountNotifications(ctx context.Context, userID string) (NotificationCounts, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT notification_type, priority, COUNT(*), SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END)
		FROM notifications
		WHERE user_id = ?
		GROUP BY notification_type, priority
	`, userID)
	if err != nil {
		return NotificationCounts{}, fmt.Errorf("count notifications: %w", err)
	}
	defer rows.Close()

	counts := NotificationCounts{
		ByType:     map[model.NotificationType]int{},
		ByPriority: map[model.Priority]int{},
	}
	for rows.Next() {
		var (
			typ, priority string
			total, unread int
		)
		if err := rows.Scan(&typ, &priority, &total, &unread); err != nil {
			return NotificationCounts{}, fmt.Errorf("scan notification counts: %w", err)
		}
		counts.ByType[model.NotificationType(typ)] += total
		counts.ByPriority[model.Priority(priority)] += total
		counts.Total += total
		counts.Unread += unread
	}
	if err := rows.Err(); err != nil {
		return NotificationCounts{}, fmt.Errorf("iterate notification counts: %w", err)
	}
	return counts, nil
}

func scanNotification(row scanner) (model.Notification, error) {
	var (
		n                   model.Notification
		typ, priority, meta string
	)
	err := row.Scan(
		&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &priority, &n.IsRead,
		&n.ActionURL, &meta, &n.CreatedAt,
	)
	if err := scanOne(err, "notification"); err != nil {
		return model.Notification{}, err
	}
	n.Type = model.NotificationType(typ)
	n.Priority = model.Priority(priority)
	if err := unmarshalJSON("metadata", meta, &n.Metadata); err != nil {
		return model.Notification{}, err
	}
	if len(n.Metadata) == 0 {
		n.Metadata = nil
	}
	return n, nil
}
