package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/safeline/internal/model"
)

const contactColumns = `id, user_id, contact_name, contact_phone, contact_email, relationship,
	is_primary, created_at, updated_at`

// InsertContact inserts an emergency contact.
func (t *Tx) InsertContact(ctx context.Context, c model.EmergencyContact) error {
	_, err := t.exec(ctx, `
		INSERT INTO emergency_contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.Name, c.Phone, c.Email, c.Relationship, c.IsPrimary, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// GetContact reads an emergency contact by id.
func (t *Tx) GetContact(ctx context.Context, id string) (model.EmergencyContact, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM emergency_contacts WHERE id = ?`, id)
	return scanContact(row)
}

// UpdateContact writes every mutable column of an emergency contact.
func (t *Tx) UpdateContact(ctx context.Context, c model.EmergencyContact) error {
	err := t.execOne(ctx, `
		UPDATE emergency_contacts
		SET contact_name = ?, contact_phone = ?, contact_email = ?, relationship = ?,
		    is_primary = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Phone, c.Email, c.Relationship, c.IsPrimary, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// ClearPrimaryContact unsets is_primary on every contact of userID except keepID.
func (t *Tx) ClearPrimaryContact(ctx context.Context, userID, keepID string, at time.Time) error {
	_, err := t.exec(ctx, `
		UPDATE emergency_contacts SET is_primary = 0, updated_at = ?
		WHERE user_id = ? AND id <> ? AND is_primary = 1
	`, at, userID, keepID)
	if err != nil {
		return fmt.Errorf("clear primary contact: %w", err)
	}
	return nil
}

// DeleteContact deletes an emergency contact.
func (t *Tx) DeleteContact(ctx context.Context, id string) error {
	if err := t.execOne(ctx, `DELETE FROM emergency_contacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// ListContacts returns a user's emergency contacts, primary first.
func (t *Tx) ListContacts(ctx context.Context, userID string) ([]model.EmergencyContact, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM emergency_contacts
		WHERE user_id = ?
		ORDER BY is_primary DESC, created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := []model.EmergencyContact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}

func scanContact(row scanner) (model.EmergencyContact, error) {
	var c model.EmergencyContact
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Relationship, &c.IsPrimary, &c.CreatedAt, &c.UpdatedAt)
	if err := scanOne(err, "contact"); err != nil {
		return model.EmergencyContact{}, err
	}
	return c, nil
}
