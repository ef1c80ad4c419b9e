package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/safeline/internal/model"
)

const conversationColumns = `id, participant_1_id, participant_2_id, last_message_at, created_at, updated_at`

// InsertConversation inserts a conversation. Participants must already be
// ordered; a second conversation for the same pair fails with a UNIQUE
// *ConstraintError.
func (t *Tx) InsertConversation(ctx context.Context, c model.Conversation) error {
	_, err := t.exec(ctx, `
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Participant1ID, c.Participant2ID, c.LastMessageAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetConversation reads a conversation by id.
func (t *Tx) GetConversation(ctx context.Context, id string) (model.Conversation, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// FindConversation reads the conversation between a and b in either order.
func (t *Tx) FindConversation(ctx context.Context, a, b string) (model.Conversation, error) {
	p1, p2 := model.OrderedPair(a, b)
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_1_id = ? AND participant_2_id = ?
	`, p1, p2)
	return scanConversation(row)
}

// TouchConversation records message activity on a conversation.
func (t *Tx) TouchConversation(ctx context.Context, id string, at time.Time) error {
	err := t.execOne(ctx, `
		UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?
	`, at, at, id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ListConversations returns userID's conversations, most recently active first.
func (t *Tx) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_1_id = ? OR participant_2_id = ?
		ORDER BY last_message_at DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []model.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

func scanConversation(row scanner) (model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.Participant1ID, &c.Participant2ID, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err := scanOne(err, "conversation"); err != nil {
		return model.Conversation{}, err
	}
	return c, nil
}
