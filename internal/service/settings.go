package service

import (
	"context"

	"github.com/roach88/safeline/internal/integrity"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/policy"
	"github.com/roach88/safeline/internal/store"
	"github.com/roach88/safeline/internal/trigger"
)

// GetSettings returns the principal's settings.
func (s *Service) GetSettings(ctx context.Context, principal string) (model.UserSettings, error) {
	var out model.UserSettings
	err := s.run(ctx, "get_settings", principal, func(ctx context.Context, tx *store.Tx, _ *trigger.Effects) error {
		st, err := tx.GetSettingsByUser(ctx, principal)
		if err != nil {
			return s.denied("user_settings", principal, string(policy.OpRead), err)
		}
		if err := s.authorize(principal, policy.OpRead, st, principal); err != nil {
			return err
		}
		out = st
		return nil
	})
	return out, err
}

// UpdateSettingsInput replaces whole settings sections. Nil fields are left
// as they are.
type UpdateSettingsInput struct {
	ThreatDetectionEnabled  *bool
	NotificationPreferences *model.NotificationPreferences
	PrivacySettings         *model.PrivacySettings
	EmergencyContacts       *[]model.EmergencyContactEntry
	AutoScreenshot          *bool
	OverlayEnabled          *bool
}

// UpdateSettings applies a partial update to the principal's settings.
func (s *Service) UpdateSettings(ctx context.Context, principal string, in UpdateSettingsInput) (model.UserSettings, error) {
	var out model.UserSettings
	err := s.run(ctx, "update_settings", principal, func(ctx context.Context, tx *store.Tx, fx *trigger.Effects) error {
		st, err := tx.GetSettingsByUser(ctx, principal)
		if err != nil {
			return s.denied("user_settings", principal, string(policy.OpUpdate), err)
		}
		if err := s.authorize(principal, policy.OpUpdate, st, principal); err != nil {
			return err
		}

		if in.ThreatDetectionEnabled != nil {
			st.ThreatDetectionEnabled = *in.ThreatDetectionEnabled
		}
		if in.NotificationPreferences != nil {
			st.NotificationPreferences = *in.NotificationPreferences
		}
		if in.PrivacySettings != nil {
			st.PrivacySettings = *in.PrivacySettings
		}
		if in.EmergencyContacts != nil {
			contacts := append([]model.EmergencyContactEntry{}, (*in.EmergencyContacts)...)
			integrity.NormalizeSettingsContacts(contacts)
			st.EmergencyContacts = contacts
		}
		if in.AutoScreenshot != nil {
			st.AutoScreenshot = *in.AutoScreenshot
		}
		if in.OverlayEnabled != nil {
			st.OverlayEnabled = *in.OverlayEnabled
		}

		fx.Touch(&st)
		if err := integrity.Validate("user_settings", &st); err != nil {
			return err
		}
		if err := tx.UpdateSettings(ctx, st); err != nil {
			return integrity.FromStoreError("user_settings", st.ID, err)
		}
		out = st
		return nil
	})
	return out, err
}
