package store

import (
	"context"
	"fmt"

	"github.com/roach88/safeline/internal/model"
)

const settingsColumns = `id, user_id, threat_detection_enabled, notification_preferences, privacy_settings,
	emergency_contacts, auto_screenshot, overlay_enabled, created_at, updated_at`

// InsertSettings inserts the settings row of a user.
// A second row for the same user fails with a UNIQUE *ConstraintError.
func (t *Tx) InsertSettings(ctx context.Context, s model.UserSettings) error {
	prefs, privacy, contacts, err := marshalSettings(s)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	_, err = t.exec(ctx, `
		INSERT INTO user_settings (`+settingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.UserID, s.ThreatDetectionEnabled, prefs, privacy, contacts,
		s.AutoScreenshot, s.OverlayEnabled, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	return nil
}

// GetSettingsByUser reads the settings row of a user.
func (t *Tx) GetSettingsByUser(ctx context.Context, userID string) (model.UserSettings, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`, userID)

	var (
		s                         model.UserSettings
		prefs, privacy, contacts string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.ThreatDetectionEnabled, &prefs, &privacy, &contacts,
		&s.AutoScreenshot, &s.OverlayEnabled, &s.CreatedAt, &s.UpdatedAt,
	)
	if err := scanOne(err, "settings"); err != nil {
		return model.UserSettings{}, err
	}
	if err := unmarshalJSON("notification_preferences", prefs, &s.NotificationPreferences); err != nil {
		return model.UserSettings{}, err
	}
	if err := unmarshalJSON("privacy_settings", privacy, &s.PrivacySettings); err != nil {
		return model.UserSettings{}, err
	}
	if err := unmarshalJSON("emergency_contacts", contacts, &s.EmergencyContacts); err != nil {
		return model.UserSettings{}, err
	}
	if s.EmergencyContacts == nil {
		s.EmergencyContacts = []model.EmergencyContactEntry{}
	}
	return s, nil
}

// UpdateSettings writes every mutable column of s, keyed by user id.
func (t *Tx) UpdateSettings(ctx context.Context, s model.UserSettings) error {
	prefs, privacy, contacts, err := marshalSettings(s)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	err = t.execOne(ctx, `
		UPDATE user_settings
		SET threat_detection_enabled = ?, notification_preferences = ?, privacy_settings = ?,
		    emergency_contacts = ?, auto_screenshot = ?, overlay_enabled = ?, updated_at = ?
		WHERE user_id = ?
	`,
		s.ThreatDetectionEnabled, prefs, privacy, contacts,
		s.AutoScreenshot, s.OverlayEnabled, s.UpdatedAt, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func marshalSettings(s model.UserSettings) (prefs, privacy, contacts string, err error) {
	if prefs, err = marshalJSON("notification_preferences", s.NotificationPreferences); err != nil {
		return "", "", "", err
	}
	if privacy, err = marshalJSON("privacy_settings", s.PrivacySettings); err != nil {
		return "", "", "", err
	}
	if contacts, err = marshalJSON("emergency_contacts", s.EmergencyContacts); err != nil {
		return "", "", "", err
	}
	return prefs, privacy, contacts, nil
}
