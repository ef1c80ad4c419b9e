package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const connectionColumns = `id, requester_id, requested_id, status, message, created_at, updated_at`

// InsertConnection inserts a connection request.
// A second connection between the same two users, in either direction,
// fails with a UNIQUE *ConstraintError.
func (t *Tx) InsertConnection(ctx context.Context, c model.UserConnection) error {
	_, err := t.exec(ctx, `
		INSERT INTO user_connections (`+connectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.RequesterID, c.RequestedID, string(c.Status), c.Message, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// GetConnection reads a connection by id.
func (t *Tx) GetConnection(ctx context.Context, id string) (model.UserConnection, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM user_connections WHERE id = ?`, id)
	return scanConnection(row)
}

// FindConnectionBetween reads the connection between a and b regardless of
// which of them sent the request.
func (t *Tx) FindConnectionBetween(ctx context.Context, a, b string) (model.UserConnection, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+connectionColumns+` FROM user_connections
		WHERE (requester_id = ? AND requested_id = ?)
		   OR (requester_id = ? AND requested_id = ?)
	`, a, b, b, a)
	return scanConnection(row)
}

// UpdateConnectionStatus sets the status of a connection.
func (t *Tx) UpdateConnectionStatus(ctx context.Context, c model.UserConnection) error {
	err := t.execOne(ctx, `
		UPDATE user_connections SET status = ?, updated_at = ? WHERE id = ?
	`, string(c.Status), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update connection: %w", err)
	}
	return nil
}

// DeleteConnection deletes a connection by id.
func (t *Tx) DeleteConnection(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM user_connections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

// ConnectionFilter narrows ListConnections.
// An empty Status matches every status.
type ConnectionFilter struct {
	UserID string
	Status model.ConnectionStatus
}

// ListConnections returns the connections userID is part of, newest first.
func (t *Tx) ListConnections(ctx context.Context, f ConnectionFilter) ([]model.UserConnection, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+connectionColumns+` FROM user_connections
		WHERE (requester_id = ? OR requested_id = ?)
		  AND (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
	`, f.UserID, f.UserID, string(f.Status), string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	out := []model.UserConnection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}
	return out, nil
}

func scanConnection(row scanner) (model.UserConnection, error) {
	var (
		c      model.UserConnection
		status string
	)
	err := row.Scan(&c.ID, &c.RequesterID, &c.RequestedID, &status, &c.Message, &c.CreatedAt, &c.UpdatedAt)
	if err := scanOne(err, "connection"); err != nil {
		return model.UserConnection{}, err
	}
	c.Status = model.ConnectionStatus(status)
	return c, nil
}
