package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const messageColumns = `id, conversation_id, sender_id, message_text, message_type, file_url, is_read, created_at`

// InsertMessage appends a message. The schema trigger rejects senders that
// are not participants of the conversation.
func (t *Tx) InsertMessage(ctx context.Context, m model.Message) error {
	_, err := t.exec(ctx, `
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ConversationID, m.SenderID, m.Text, string(m.Type), m.FileURL, m.IsRead, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a page of a conversation's messages, oldest first.
// A limit <= 0 returns every message.
func (t *Tx) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var (
			m       model.Message
			msgType string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &msgType, &m.FileURL, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = model.MessageType(msgType)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// CountMessages returns the number of messages in a conversation.
func (t *Tx) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// MarkMessagesRead marks every message in a conversation that readerID did
// not send as read and returns how many changed.
func (t *Tx) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	res, err := t.exec(ctx, `
		UPDATE messages SET is_read = 1
		WHERE conversation_id = ? AND sender_id != ? AND is_read = 0
	`, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// UnreadCounts returns, per conversation userID takes part in, the number of
// unread messages sent by the other participant. Conversations with nothing
// unread are absent.
func (t *Tx) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT m.conversation_id, COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.participant_1_id = ? OR c.participant_2_id = ?)
		  AND m.sender_id != ? AND m.is_read = 0
		GROUP BY m.conversation_id
	`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan unread: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unread: %w", err)
	}
	return out, nil
}
