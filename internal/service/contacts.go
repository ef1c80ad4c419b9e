package service

import (
	"context"

	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// ContactInput is an emergency contact as entered by the user.
type ContactInput struct {
	Name         string
	Phone        string
	Email        string
	Relationship string
	IsPrimary    bool
}

// AddEmergencyContact adds a contact for the principal. A primary contact
// demotes the principal's previous primary.
func (s *Service) AddEmergencyContact(ctx context.Context, principal string, in ContactInput) (model.EmergencyContact, error) {
	var out model.EmergencyContact
	err := s.run(ctx, "add_emergency_contact", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		now := fx.Now()
		c := model.EmergencyContact{
			ID:           fx.NewID(),
			UserID:       principal,
			Name:         in.Name,
			Phone:        in.Phone,
			Email:        in.Email,
			Relationship: in.Relationship,
			IsPrimary:    in.IsPrimary,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		integrity.NormalizeContact(&c)
		if err := s.authorize(principal, policy.OpCreate, c, c.ID); err != nil {
			return err
		}
		if err := integrity.Validate("emergency_contact", &c); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, "emergency_contact", "user_id", principal); err != nil {
			return err
		}
		if err := tx.InsertContact(ctx, c); err != nil {
			return integrity.FromStoreError("emergency_contact", c.ID, err)
		}
		if c.IsPrimary {
			if err := tx.ClearPrimaryContact(ctx, principal, c.ID, now); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	return out, err
}

// ListEmergencyContacts returns the principal's contacts, primary first.
func (s *Service) ListEmergencyContacts(ctx context.Context, principal string) ([]model.EmergencyContact, error) {
	var out []model.EmergencyContact
	err := s.run(ctx, "list_emergency_contacts", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if principal == "" {
			return errEmptyPrincipal("emergency_contact")
		}
		rows, err := tx.ListContacts(ctx, principal)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

func (s *Service) ownedContact(ctx context.Context, tx *store.Tx, principal, id string, op policy.Operation) (model.EmergencyContact, error) {
	c, err := tx.GetContact(ctx, id)
	if err != nil {
		return model.EmergencyContact{}, s.denied("emergency_contact", id, string(op), err)
	}
	if err := s.authorize(principal, op, c, id); err != nil {
		return model.EmergencyContact{}, err
	}
	return c, nil
}

// UpdateEmergencyContact replaces a contact's fields.
func (s *Service) UpdateEmergencyContact(ctx context.Context, principal, id string, in ContactInput) (model.EmergencyContact, error) {
	var out model.EmergencyContact
	err := s.run(ctx, "update_emergency_contact", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		c, err := s.ownedContact(ctx, tx, principal, id, policy.OpUpdate)
		if err != nil {
			return err
		}
		c.Name = in.Name
		c.Phone = in.Phone
		c.Email = in.Email
		c.Relationship = in.Relationship
		c.IsPrimary = in.IsPrimary
		integrity.NormalizeContact(&c)
		now := fx.Touch(&c)
		if err := integrity.Validate("emergency_contact", &c); err != nil {
			return err
		}
		if err := tx.UpdateContact(ctx, c); err != nil {
			return integrity.FromStoreError("emergency_contact", id, err)
		}
		if c.IsPrimary {
			if err := tx.ClearPrimaryContact(ctx, principal, c.ID, now); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteEmergencyContact deletes one of the principal's contacts.
func (s *Service) DeleteEmergencyContact(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_emergency_contact", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		if _, err := s.ownedContact(ctx, tx, principal, id, policy.OpDelete); err != nil {
			return err
		}
		return integrity.FromStoreError("emergency_contact", id, tx.DeleteContact(ctx, id))
	})
}
