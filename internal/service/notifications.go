package service

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// CreateNotificationInput is a notification a user files for themselves
// (reminders, saved guidance).
type CreateNotificationInput struct {
	Type      model.NotificationType
	Title     string
	Body      string
	Priority  model.Priority
	ActionURL string
	Metadata  map[string]string
}

// CreateNotification stores a notification for the principal.
func (s *Service) CreateNotification(ctx context.Context, principal string, in CreateNotificationInput) (model.Notification, error) {
	var out model.Notification
	err := s.run(ctx, "create_notification", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		n := model.Notification{
			UserID:    principal,
			Type:      in.Type,
			Title:     in.Title,
			Body:      in.Body,
			Priority:  in.Priority,
			ActionURL: in.ActionURL,
			Metadata:  in.Metadata,
		}
		if err := s.authorize(principal, policy.OpCreate, n, ""); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, "notification", "user_id", principal); err != nil {
			return err
		}
		created, err := fx.Notify(ctx, tx, n)
		if err != nil {
			return integrity.FromStoreError("notification", "", err)
		}
		out = created
		return nil
	})
	return out, err
}

// NotificationQuery filters ListNotifications. Limit <= 0 means no limit.
type NotificationQuery struct {
	Type       model.NotificationType
	UnreadOnly bool
	Limit      int
}

// ListNotifications returns the principal's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, principal string, q NotificationQuery) ([]model.Notification, error) {
	var out []model.Notification
	err := s.run(ctx, "list_notifications", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("notification")
		}
		if q.Type != "" && !q.Type.Valid() {
			return apperr.Validation("notification", "notification_type", fmt.Sprintf("invalid value %q", q.Type))
		}
		rows, err := tx.ListNotifications(ctx, store.NotificationFilter{
			UserID:     principal,
			Type:       q.Type,
			UnreadOnly: q.UnreadOnly,
			Limit:      q.Limit,
		})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

func (s *Service) ownedNotification(ctx context.Context, tx *store.Tx, principal, id string, op policy.Operation) (model.Notification, error) {
	n, err := tx.GetNotification(ctx, id)
	if err != nil {
		return model.Notification{}, s.denied("notification", id, string(op), err)
	}
	if err := s.authorize(principal, op, n, id); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// MarkNotificationRead marks one of the principal's notifications read.
func (s *Service) MarkNotificationRead(ctx context.Context, principal, id string) (model.Notification, error) {
	var out model.Notification
	err := s.run(ctx, "mark_notification_read", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		n, err := s.ownedNotification(ctx, tx, principal, id, policy.OpUpdate)
		if err != nil {
			return err
		}
		if err := tx.MarkNotificationRead(ctx, id); err != nil {
			return integrity.FromStoreError("notification", id, err)
		}
		n.IsRead = true
		out = n
		return nil
	})
	return out, err
}

// MarkAllNotificationsRead marks every unread notification of the
// principal read and returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, principal string) (int64, error) {
	var out int64
	err := s.run(ctx, "mark_all_notifications_read", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if err := s.authorize(principal, policy.OpUpdate, model.Notification{UserID: principal}, ""); err != nil {
			return err
		}
		n, err := tx.MarkAllNotificationsRead(ctx, principal)
		if err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

// DeleteNotification deletes one of the principal's notifications.
func (s *Service) DeleteNotification(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_notification", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if _, err := s.ownedNotification(ctx, tx, principal, id, policy.OpDelete); err != nil {
			return err
		}
		return integrity.FromStoreError("notification", id, tx.DeleteNotification(ctx, id))
	})
}

// NotificationStats summarizes the principal's notifications.
func (s *Service) NotificationStats(ctx context.Context, principal string) (store.NotificationCounts, error) {
	var out store.NotificationCounts
	err := s.run(ctx, "notification_stats", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if err := s.authorize(principal, policy.OpRead, model.Notification{UserID: principal}, ""); err != nil {
			return err
		}
		counts, err := tx.CountNotifications(ctx, principal)
		if err != nil {
			return err
		}
		out = counts
		return nil
	})
	return out, err
}
