package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// RegisterUserInput is the registration form.
type RegisterUserInput struct {
	Name        string
	Email       string
	Phone       string
	UserType    model.UserType
	Gender      model.Gender
	DateOfBirth time.Time
	AvatarURL   string
}

// RegisterUser creates a user and provisions its default settings.
// Registration needs no principal. A duplicate email or phone fails with a
// VALIDATION error on that field.
func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (model.User, error) {
	var out model.User
	err := s.run(ctx, "register_user", "", func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		now := fx.Now()
		u := model.User{
			ID:          fx.NewID(),
			Name:        in.Name,
			Email:       in.Email,
			Phone:       in.Phone,
			UserType:    in.UserType,
			Gender:      in.Gender,
			DateOfBirth: in.DateOfBirth,
			AvatarURL:   in.AvatarURL,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		integrity.NormalizeUser(&u)
		if u.AvatarURL == "" && u.Gender.Valid() {
			u.AvatarURL = fmt.Sprintf("assets/%s_avatar.png", strings.ToLower(string(u.Gender)))
		}

		if err := s.authorize("", policy.OpCreate, u, u.ID); err != nil {
			return err
		}
		if err := integrity.Validate("user", &u); err != nil {
			return err
		}
		if err := integrity.CheckDateOfBirth(u.DateOfBirth, now); err != nil {
			return err
		}

		if err := tx.InsertUser(ctx, u); err != nil {
			return integrity.FromStoreError("user", u.ID, err)
		}
		if _, err := fx.ProvisionSettings(ctx, tx, u.ID, now); err != nil {
			return integrity.FromStoreError("user_settings", u.ID, err)
		}
		out = u
		return nil
	})
	return out, err
}

// GetUser returns the principal's own user row.
func (s *Service) GetUser(ctx context.Context, principal, id string) (model.User, error) {
	var out model.User
	err := s.run(ctx, "get_user", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return s.denied("user", id, string(policy.OpRead), err)
		}
		if err := s.authorize(principal, policy.OpRead, u, id); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// UpdateUserInput carries the profile fields a user may change. Nil
// fields are left as they are.
type UpdateUserInput struct {
	Name      *string
	UserType  *model.UserType
	AvatarURL *string
}

// UpdateUser changes profile fields of the principal's own user.
func (s *Service) UpdateUser(ctx context.Context, principal, id string, in UpdateUserInput) (model.User, error) {
	return s.mutateUser(ctx, "update_user", principal, id, func(u *model.User, _ time.Time) {
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.UserType != nil {
			u.UserType = *in.UserType
		}
		if in.AvatarURL != nil {
			u.AvatarURL = *in.AvatarURL
		}
	})
}

// RecordLogin stamps last_login on the principal's user.
func (s *Service) RecordLogin(ctx context.Context, principal string) (model.User, error) {
	return s.mutateUser(ctx, "record_login", principal, principal, func(u *model.User, now time.Time) {
		u.LastLogin = &now
	})
}

// DeactivateUser soft-disables the principal's user. The row and everything
// it owns are kept.
func (s *Service) DeactivateUser(ctx context.Context, principal, id string) (model.User, error) {
	return s.mutateUser(ctx, "deactivate_user", principal, id, func(u *model.User, _ time.Time) {
		u.IsActive = false
	})
}

func (s *Service) mutateUser(ctx context.Context, op, principal, id string, apply func(u *model.User, now time.Time)) (model.User, error) {
	var out model.User
	err := s.run(ctx, op, principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return s.denied("user", id, string(policy.OpUpdate), err)
		}
		if err := s.authorize(principal, policy.OpUpdate, u, id); err != nil {
			return err
		}

		now := fx.Touch(&u)
		apply(&u, now)
		integrity.NormalizeUser(&u)
		if err := integrity.Validate("user", &u); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return integrity.FromStoreError("user", id, err)
		}
		out = u
		return nil
	})
	return out, err
}

// DeleteUser hard-deletes the principal's user. Everything the user owns
// goes with it; the ratings of professionals the user reviewed are
// recomputed without the removed reviews.
func (s *Service) DeleteUser(ctx context.Context, principal, id string) error {
	return s.run(ctx, "delete_user", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return s.denied("user", id, string(policy.OpDelete), err)
		}
		if err := s.authorize(principal, policy.OpDelete, u, id); err != nil {
			return err
		}

		reviewed, err := tx.ProfilesReviewedBy(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteUser(ctx, id); err != nil {
			return integrity.FromStoreError("user", id, err)
		}
		for _, profileID := range reviewed {
			if _, _, err := fx.RecomputeRating(ctx, tx, profileID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

// errEmptyPrincipal is returned by operations that need an authenticated caller.
func errEmptyPrincipal(entity string) error {
	return &apperr.Error{Kind: apperr.KindAuthorization, Entity: entity, Message: "authentication required"}
}
