package service

import (
	"context"
	"errors"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

var connectionUpdateMessages = map[model.ConnectionStatus]string{
	model.ConnectionAccepted: "Your connection request was accepted!",
	model.ConnectionRejected: "Your connection request was declined.",
	model.ConnectionBlocked:  "Connection request was blocked.",
}

// SendConnectionRequest opens a pending request from the principal to
// requestedID and notifies the requested user.
//
// A pair of users has at most one connection row regardless of direction:
// a request while any connection between them exists fails with CONFLICT.
func (s *Service) SendConnectionRequest(ctx context.Context, principal, requestedID, message string) (model.UserConnection, error) {
	var out model.UserConnection
	err := s.run(ctx, "send_connection_request", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		now := fx.Now()
		c := model.UserConnection{
			ID:          fx.NewID(),
			RequesterID: principal,
			RequestedID: requestedID,
			Status:      model.ConnectionPending,
			Message:     integrity.Text(message),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.authorize(principal, policy.OpCreate, c, c.ID); err != nil {
			return err
		}
		if err := integrity.Validate("user_connection", &c); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, "user_connection", "requested_id", requestedID); err != nil {
			return err
		}

		_, err := tx.FindConnectionBetween(ctx, principal, requestedID)
		switch {
		case err == nil:
			return apperr.Conflict("user_connection", "requested_id", "a connection between these users already exists")
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.InsertConnection(ctx, c); err != nil {
			return integrity.FromStoreError("user_connection", c.ID, err)
		}
		if _, err := fx.Notify(ctx, tx, model.Notification{
			UserID:   requestedID,
			Type:     model.NotifyConnectionRequest,
			Title:    "New Connection Request",
			Body:     "You have a new connection request",
			Priority: model.PriorityNormal,
			Metadata: map[string]string{"connection_id": c.ID},
		}); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// RespondToConnection moves a connection to status and notifies the other
// participant.
//
// Only the requested user may accept or reject, and only while the request
// is pending. Either side may block from any state.
func (s *Service) RespondToConnection(ctx context.Context, principal, id string, status model.ConnectionStatus) (model.UserConnection, error) {
	var out model.UserConnection
	err := s.run(ctx, "respond_to_connection", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		c, err := tx.GetConnection(ctx, id)
		if err != nil {
			return s.denied("user_connection", id, string(policy.OpUpdate), err)
		}
		if err := s.authorize(principal, policy.OpUpdate, c, id); err != nil {
			return err
		}
		if err := checkConnectionTransition(c, principal, status); err != nil {
			return err
		}

		c.Status = status
		fx.Touch(&c)
		if err := tx.UpdateConnectionStatus(ctx, c); err != nil {
			return integrity.FromStoreError("user_connection", id, err)
		}
		if _, err := fx.Notify(ctx, tx, model.Notification{
			UserID:   counterpart(c, principal),
			Type:     model.NotifyConnectionRequest,
			Title:    "Connection Request Update",
			Body:     connectionUpdateMessages[status],
			Priority: model.PriorityNormal,
			Metadata: map[string]string{"connection_id": c.ID, "status": string(status)},
		}); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// counterpart returns the participant of c that is not principal.
func counterpart(c model.UserConnection, principal string) string {
	if principal == c.RequesterID {
		return c.RequestedID
	}
	return c.RequesterID
}

func checkConnectionTransition(c model.UserConnection, principal string, to model.ConnectionStatus) error {
	switch to {
	case model.ConnectionBlocked:
		if c.Status == model.ConnectionBlocked {
			return apperr.Validation("user_connection", "status", "connection is already blocked")
		}
		return nil
	case model.ConnectionAccepted, model.ConnectionRejected:
		if c.Status != model.ConnectionPending {
			return apperr.Validation("user_connection", "status", "connection request has already been processed")
		}
		if principal != c.RequestedID {
			return &apperr.Error{
				Kind:    apperr.KindAuthorization,
				Entity:  "user_connection",
				ID:      c.ID,
				Message: "only the requested user may accept or reject",
			}
		}
		return nil
	default:
		return apperr.Validation("user_connection", "status", "invalid target status \""+string(to)+"\"")
	}
}

// GetConnection returns a connection the principal is part of.
func (s *Service) GetConnection(ctx context.Context, principal, id string) (model.UserConnection, error) {
	var out model.UserConnection
	err := s.run(ctx, "get_connection", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		c, err := tx.GetConnection(ctx, id)
		if err != nil {
			return s.denied("user_connection", id, string(policy.OpRead), err)
		}
		if err := s.authorize(principal, policy.OpRead, c, id); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// ListConnections returns the principal's connections, optionally with one
// status.
func (s *Service) ListConnections(ctx context.Context, principal string, status model.ConnectionStatus) ([]model.UserConnection, error) {
	var out []model.UserConnection
	err := s.run(ctx, "list_connections", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("user_connection")
		}
		if status != "" && !status.Valid() {
			return apperr.Validation("user_connection", "status", "invalid value \""+string(status)+"\"")
		}
		rows, err := tx.ListConnections(ctx, store.ConnectionFilter{UserID: principal, Status: status})
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// DeleteConnection is never granted; connections end by being blocked.
// The error is the same whether or not the row exists.
func (s *Service) DeleteConnection(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_connection", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		c, err := tx.GetConnection(ctx, id)
		if err != nil {
			return s.denied("user_connection", id, string(policy.OpDelete), err)
		}
		if err := s.authorize(principal, policy.OpDelete, c, id); err != nil {
			return err
		}
		return integrity.FromStoreError("user_connection", id, tx.DeleteConnection(ctx, id))
	})
}
