// Package trigger implements the derived effects that follow a write.
//
// Effects run inside the caller's transaction with system authority: the
// primary write was already authorized, and its consequences (default
// settings, updated_at stamps, fan-out notifications, rating aggregates) are
// not re-evaluated against the policy table. If the transaction rolls back,
// every effect rolls back with it, including the outbox of notifications
// awaiting delivery.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/safeline/internal/clock"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/store"
)

// Effects carries the time source, id source and notification outbox of one
// transaction. It is not safe for concurrent use; create one per operation.
type Effects struct {
	clock  clock.Clock
	ids    clock.IDGenerator
	outbox []model.Notification
}

// New creates an Effects for a single transaction.
func New(c clock.Clock, ids clock.IDGenerator) *Effects {
	return &Effects{clock: c, ids: ids}
}

// Now returns the current time from the effect clock.
func (e *Effects) Now() time.Time {
	return e.clock.Now()
}

// NewID returns a fresh row identifier.
func (e *Effects) NewID() string {
	return e.ids.NewID()
}

// Touch stamps updated_at on row and returns the stamp.
func (e *Effects) Touch(row model.Touchable) time.Time {
	now := e.clock.Now()
	row.Touch(now)
	return now
}

// ProvisionSettings creates the default settings row of a newly created user.
func (e *Effects) ProvisionSettings(ctx context.Context, tx *store.Tx, userID string, now time.Time) (model.UserSettings, error) {
	s := model.DefaultSettings(userID)
	s.ID = e.ids.NewID()
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := tx.InsertSettings(ctx, s); err != nil {
		return model.UserSettings{}, fmt.Errorf("provision settings: %w", err)
	}
	return s, nil
}

// Notify inserts a notification and queues it for delivery after commit.
// ID, CreatedAt and a normal priority are filled in when absent.
func (e *Effects) Notify(ctx context.Context, tx *store.Tx, n model.Notification) (model.Notification, error) {
	if n.ID == "" {
		n.ID = e.ids.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = e.clock.Now()
	}
	if n.Priority == "" {
		n.Priority = model.PriorityNormal
	}
	n.Title = integrity.Text(n.Title)
	n.Body = integrity.Text(n.Body)
	if err := integrity.Validate("notification", &n); err != nil {
		return model.Notification{}, err
	}
	if err := tx.InsertNotification(ctx, n); err != nil {
		return model.Notification{}, fmt.Errorf("notify %s: %w", n.UserID, err)
	}
	e.outbox = append(e.outbox, n)
	return n, nil
}

// RecomputeRating recomputes a profile's rating and total_reviews from its
// reviews, reading them in the same transaction as the write that changed
// them.
func (e *Effects) RecomputeRating(ctx context.Context, tx *store.Tx, profileID string) (float64, int, error) {
	avg, count, err := tx.ReviewAggregate(ctx, profileID)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.UpdateRating(ctx, profileID, avg, count, e.clock.Now()); err != nil {
		return 0, 0, fmt.Errorf("recompute rating: %w", err)
	}
	return avg, count, nil
}

// Outbox returns the notifications raised so far, in insertion order.
func (e *Effects) Outbox() []model.Notification {
	out := make([]model.Notification, len(e.outbox))
	copy(out, e.outbox)
	return out
}

// Reset discards the outbox. Used when a transaction is retried.
func (e *Effects) Reset() {
	e.outbox = nil
}
