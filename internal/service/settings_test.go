package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

func TestUpdateSettings_Partial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	before, err := e.svc.GetSettings(ctx, alice.ID)
	require.NoError(t, err)

	off := false
	contacts := []model.EmergencyContactEntry{{Name: " Mom ", Phone: "+1 (555) 000-1234", Relation: "mother"}}
	after, err := e.svc.UpdateSettings(ctx, alice.ID, UpdateSettingsInput{
		AutoScreenshot:    &off,
		EmergencyContacts: &contacts,
	})
	require.NoError(t, err)
	assert.False(t, after.AutoScreenshot)
	assert.Equal(t, before.ThreatDetectionEnabled, after.ThreatDetectionEnabled)
	assert.Equal(t, before.NotificationPreferences, after.NotificationPreferences)
	require.Len(t, after.EmergencyContacts, 1)
	assert.Equal(t, "Mom", after.EmergencyContacts[0].Name)
	assert.Equal(t, "+15550001234", after.EmergencyContacts[0].Phone)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	reread, err := e.svc.GetSettings(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, after.EmergencyContacts, reread.EmergencyContacts)

	bad := model.PrivacySettings{ProfileVisibility: "everyone"}
	_, err = e.svc.UpdateSettings(ctx, alice.ID, UpdateSettingsInput{PrivacySettings: &bad})
	assert.Equal(t, "profile_visibility", apperr.FieldOf(err))

	_, err = e.svc.GetSettings(ctx, bob.ID+"x")
	assert.True(t, apperr.IsAuthorization(err))
}

func TestEmergencyContacts_PrimaryDemotion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	first, err := e.svc.AddEmergencyContact(ctx, alice.ID, ContactInput{Name: "Mom", Phone: "+15550009999", IsPrimary: true})
	require.NoError(t, err)
	second, err := e.svc.AddEmergencyContact(ctx, alice.ID, ContactInput{Name: "Dad", Phone: "555-000-8888", Email: "DAD@Example.com", IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, "dad@example.com", second.Email)

	list, err := e.svc.ListEmergencyContacts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, list[0].IsPrimary)
	assert.Equal(t, first.ID, list[1].ID)
	assert.False(t, list[1].IsPrimary)

	promoted, err := e.svc.UpdateEmergencyContact(ctx, alice.ID, first.ID, ContactInput{Name: "Mom", Phone: "+15550009999", IsPrimary: true})
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary)
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM emergency_contacts WHERE user_id = ? AND is_primary = 1`, alice.ID))

	// Another user's primary is untouched.
	_, err = e.svc.AddEmergencyContact(ctx, bob.ID, ContactInput{Name: "Sis", Phone: "+15550007777", IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM emergency_contacts WHERE user_id = ? AND is_primary = 1`, alice.ID))

	_, err = e.svc.UpdateEmergencyContact(ctx, bob.ID, first.ID, ContactInput{Name: "Mom", Phone: "+15550009999"})
	assert.True(t, apperr.IsAuthorization(err))
	assert.True(t, apperr.IsAuthorization(e.svc.DeleteEmergencyContact(ctx, bob.ID, first.ID)))
	require.NoError(t, e.svc.DeleteEmergencyContact(ctx, alice.ID, first.ID))
}

func TestEmergencyContacts_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _, _ := e.users(t)

	tests := []struct {
		name  string
		in    ContactInput
		field string
	}{
		{"short name", ContactInput{Name: "M", Phone: "+15550009999"}, "contact_name"},
		{"bad phone", ContactInput{Name: "Mom", Phone: "call me"}, "contact_phone"},
		{"bad email", ContactInput{Name: "Mom", Phone: "+15550009999", Email: "nope"}, "contact_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.AddEmergencyContact(ctx, alice.ID, tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}
}
