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

// CreateConversation returns the conversation between the principal and
// otherID, creating it on first use. Either participant gets the same row
// no matter who asks first. Users with a blocked connection cannot start
// one.
func (s *Service) CreateConversation(ctx context.Context, principal, otherID string) (model.Conversation, error) {
	var out model.Conversation
	err := s.run(ctx, "create_conversation", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		now := fx.Now()
		p1, p2 := model.OrderedPair(principal, otherID)
		conv := model.Conversation{
			ID:             fx.NewID(),
			Participant1ID: p1,
			Participant2ID: p2,
			LastMessageAt:  now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.authorize(principal, policy.OpCreate, conv, conv.ID); err != nil {
			return err
		}
		if err := integrity.Validate("conversation", &conv); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, "conversation", "participant_id", otherID); err != nil {
			return err
		}

		conn, err := tx.FindConnectionBetween(ctx, p1, p2)
		switch {
		case err == nil && conn.Status == model.ConnectionBlocked:
			if s.metrics != nil {
				s.metrics.PolicyDenied("conversation", string(policy.OpCreate))
			}
			return apperr.Denied("conversation", "")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		existing, err := tx.FindConversation(ctx, p1, p2)
		switch {
		case err == nil:
			out = existing
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.InsertConversation(ctx, conv); err != nil {
			// Lost a race for the pair: read the winner.
			if ce, ok := store.AsConstraint(err); ok && ce.Kind == store.ConstraintUnique {
				existing, rerr := tx.FindConversation(ctx, p1, p2)
				if rerr != nil {
					return integrity.FromStoreError("conversation", conv.ID, rerr)
				}
				out = existing
				return nil
			}
			return integrity.FromStoreError("conversation", conv.ID, err)
		}
		out = conv
		return nil
	})
	return out, err
}

// GetConversation returns a conversation the principal takes part in.
func (s *Service) GetConversation(ctx context.Context, principal, id string) (model.Conversation, error) {
	var out model.Conversation
	err := s.run(ctx, "get_conversation", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		conv, err := s.readConversation(ctx, tx, principal, id)
		if err != nil {
			return err
		}
		unread, err := tx.UnreadCounts(ctx, principal)
		if err != nil {
			return err
		}
		conv.UnreadCount = unread[conv.ID]
		out = conv
		return nil
	})
	return out, err
}

func (s *Service) readConversation(ctx context.Context, tx *store.Tx, principal, id string) (model.Conversation, error) {
	conv, err := tx.GetConversation(ctx, id)
	if err != nil {
		return model.Conversation{}, s.denied("conversation", id, string(policy.OpRead), err)
	}
	if err := s.authorize(principal, policy.OpRead, conv, id); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

// ListConversations returns the principal's conversations, most recently
// active first, each with the principal's unread message count.
func (s *Service) ListConversations(ctx context.Context, principal string) ([]model.Conversation, error) {
	var out []model.Conversation
	err := s.run(ctx, "list_conversations", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("conversation")
		}
		rows, err := tx.ListConversations(ctx, principal)
		if err != nil {
			return err
		}
		unread, err := tx.UnreadCounts(ctx, principal)
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].UnreadCount = unread[rows[i].ID]
		}
		out = rows
		return nil
	})
	return out, err
}

// SendMessageInput is a new chat message.
type SendMessageInput struct {
	ConversationID string
	Text           string
	Type           model.MessageType
	FileURL        string
}

// SendMessage appends a message from the principal, bumps the
// conversation's last_message_at, and notifies the other participant.
func (s *Service) SendMessage(ctx context.Context, principal string, in SendMessageInput) (model.Message, error) {
	var out model.Message
	err := s.run(ctx, "send_message", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		conv, err := tx.GetConversation(ctx, in.ConversationID)
		if err != nil {
			return s.denied("message", in.ConversationID, string(policy.OpCreate), err)
		}

		now := fx.Now()
		m := model.Message{
			ID:             fx.NewID(),
			ConversationID: conv.ID,
			SenderID:       principal,
			Text:           integrity.Text(in.Text),
			Type:           in.Type,
			FileURL:        in.FileURL,
			CreatedAt:      now,
		}
		if m.Type == "" {
			m.Type = model.MessageText
		}
		if err := s.authorize(principal, policy.OpCreate, policy.MessageInConversation{Message: m, Conversation: conv}, conv.ID); err != nil {
			return err
		}
		if err := integrity.Validate("message", &m); err != nil {
			return err
		}

		if err := tx.InsertMessage(ctx, m); err != nil {
			return integrity.FromStoreError("message", m.ID, err)
		}
		if err := tx.TouchConversation(ctx, conv.ID, now); err != nil {
			return integrity.FromStoreError("conversation", conv.ID, err)
		}
		if _, err := fx.Notify(ctx, tx, model.Notification{
			UserID:   conv.Other(principal),
			Type:     model.NotifyMessage,
			Title:    "New Message",
			Body:     "You have a new message",
			Priority: model.PriorityNormal,
			Metadata: map[string]string{"conversation_id": conv.ID, "message_id": m.ID},
		}); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// ListMessages returns a page of a conversation's messages, oldest first,
// then marks every message the other participant sent as read. The page
// shows read state as it was before the call.
// limit <= 0 returns every message from offset on.
func (s *Service) ListMessages(ctx context.Context, principal, conversationID string, limit, offset int) ([]model.Message, error) {
	var out []model.Message
	err := s.run(ctx, "list_messages", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		conv, err := tx.GetConversation(ctx, conversationID)
		if err != nil {
			return s.denied("message", conversationID, string(policy.OpRead), err)
		}
		target := policy.MessageInConversation{
			Message:      model.Message{ConversationID: conv.ID},
			Conversation: conv,
		}
		if err := s.authorize(principal, policy.OpRead, target, conversationID); err != nil {
			return err
		}
		if offset < 0 {
			return apperr.Validation("message", "offset", "must not be negative")
		}
		rows, err := tx.ListMessages(ctx, conversationID, limit, offset)
		if err != nil {
			return err
		}
		if _, err := tx.MarkMessagesRead(ctx, conversationID, principal); err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}
