// Package service implements the domain operations of the safety backend.
//
// Every operation takes the calling principal explicitly and runs its
// read, authorize, validate, write and trigger steps inside one store
// transaction. Notifications raised by the triggers are handed to the
// Dispatcher only after the transaction commits, so a failed delivery can
// never unwind the write that caused it.
//
// Errors are always *apperr.Error for caller-visible failures. A row the
// principal may not see and a row that does not exist both surface as the
// same AUTHORIZATION error.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/clock"
	"github.com/roach88/safeline/internal/collab"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/logging"
	"github.com/roach88/safeline/internal/metrics"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// Dispatcher receives committed notifications for delivery.
// *delivery.Dispatcher implements it.
type Dispatcher interface {
	Enqueue(ns ...model.Notification)
}

// Options wires the service to its collaborators. Nil fields get defaults:
// system clock, UUIDv7 ids, no-op logger, and no delivery. Operations that
// need a missing collaborator (Classifier, Storage, Verifiers) fail with a
// COLLABORATOR error.
type Options struct {
	Clock      clock.Clock
	IDs        clock.IDGenerator
	Classifier collab.Classifier
	Storage    collab.FileStorage
	Verifiers  collab.VerifierAuthority
	Dispatcher Dispatcher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	// CollaboratorTimeout bounds each classifier and storage call (0 = none).
	CollaboratorTimeout time.Duration
}

// Service executes domain operations against a store.
// Safe for concurrent use; transactions serialize in the store.
type Service struct {
	store      *store.Store
	clock      clock.Clock
	ids        clock.IDGenerator
	classifier collab.Classifier
	storage    collab.FileStorage
	verifiers  collab.VerifierAuthority
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	timeout    time.Duration
}

// New creates a Service.
func New(st *store.Store, opts Options) *Service {
	s := &Service{
		store:      st,
		clock:      opts.Clock,
		ids:        opts.IDs,
		classifier: opts.Classifier,
		storage:    opts.Storage,
		verifiers:  opts.Verifiers,
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		timeout:    opts.CollaboratorTimeout,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.ids == nil {
		s.ids = clock.UUIDv7{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// txFunc is the body of one operation.
type txFunc func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error

// run executes fn in a transaction and records the outcome.
func (s *Service) run(ctx context.Context, op, principal string, fn txFunc) error {
	return s.observed(ctx, op, principal, func() error {
		return s.transact(ctx, fn)
	})
}

// observed times body and logs and counts its outcome.
func (s *Service) observed(ctx context.Context, op, principal string, body func() error) error {
	start := time.Now()
	err := body()
	s.observe(ctx, op, principal, time.Since(start), err)
	return err
}

// transact executes fn in a transaction, then hands the committed
// notifications to the dispatcher. Collaborator calls belong outside fn:
// the store has a single connection and fn holds it.
func (s *Service) transact(ctx context.Context, fn txFunc) error {
	fx := trigger.New(s.clock, s.ids)

	var deliver []model.Notification
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		fx.Reset()
		if err := fn(ctx, tx, fx); err != nil {
			return err
		}
		var err error
		deliver, err = deliverable(ctx, tx, fx.Outbox())
		return err
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		for _, n := range fx.Outbox() {
			s.metrics.NotificationCreated(string(n.Type))
		}
	}
	if s.dispatcher != nil && len(deliver) > 0 {
		s.dispatcher.Enqueue(deliver...)
	}
	return nil
}

// deliverable filters the outbox by each recipient's notification
// preferences. Rows are stored either way; preferences only gate pushes.
func deliverable(ctx context.Context, tx *store.Tx, outbox []model.Notification) ([]model.Notification, error) {
	if len(outbox) == 0 {
		return nil, nil
	}
	prefs := make(map[string]model.NotificationPreferences)
	out := make([]model.Notification, 0, len(outbox))
	for _, n := range outbox {
		p, ok := prefs[n.UserID]
		if !ok {
			settings, err := tx.GetSettingsByUser(ctx, n.UserID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				p = model.DefaultNotificationPreferences()
			case err != nil:
				return nil, err
			default:
				p = settings.NotificationPreferences
			}
			prefs[n.UserID] = p
		}
		if p.Allows(n.Type) {
			out = append(out, n)
		}
	}
	return out, nil
}

// observe logs and counts one finished operation.
func (s *Service) observe(ctx context.Context, op, principal string, elapsed time.Duration, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, outcome, elapsed)
	}

	log := s.log(ctx)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("principal", principal),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case err == nil:
		log.Info("operation completed", fields...)
	case apperr.KindOf(err) == apperr.KindInternal:
		log.Error("operation failed", append(fields, zap.Error(err))...)
	default:
		log.Warn("operation rejected", append(fields, zap.Error(err))...)
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

// authorize checks the policy and counts denials.
func (s *Service) authorize(principal string, op policy.Operation, r any, id string) error {
	if err := policy.Check(principal, op, r, id); err != nil {
		if s.metrics != nil {
			s.metrics.PolicyDenied(policy.EntityName(r), string(op))
		}
		return err
	}
	return nil
}

// denied renders a missing protected row the same way as a forbidden one.
func (s *Service) denied(entity, id, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		if s.metrics != nil {
			s.metrics.PolicyDenied(entity, op)
		}
		return apperr.Denied(entity, id)
	}
	return integrity.FromStoreError(entity, id, err)
}

// requireUser fails with NOT_FOUND when id does not name a user.
func requireUser(ctx context.Context, tx *store.Tx, entity, field, id string) error {
	if id == "" {
		return apperr.Validation(entity, field, "is required")
	}
	ok, err := tx.UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.Error{Kind: apperr.KindNotFound, Entity: "user", ID: id, Field: field, Message: "referenced user does not exist"}
	}
	return nil
}

// requireCollaborator fails when an optional collaborator was not wired.
func requireCollaborator(name string, present bool) error {
	if present {
		return nil
	}
	return apperr.Collaborator(name, errors.New("not configured"))
}
