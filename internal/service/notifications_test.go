package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

func TestNotifications_ReadAndStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	// bob -> alice produces a connection_request for alice.
	_, err := e.svc.SendConnectionRequest(ctx, bob.ID, alice.ID, "hi")
	require.NoError(t, err)
	reminder, err := e.svc.CreateNotification(ctx, alice.ID, CreateNotificationInput{
		Type:     model.NotifyLegalGuidance,
		Title:    "  Read the guide  ",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, "Read the guide", reminder.Title)

	stats, err := e.svc.NotificationStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, 1, stats.ByType[model.NotifyConnectionRequest])
	assert.Equal(t, 1, stats.ByPriority[model.PriorityLow])

	read, err := e.svc.MarkNotificationRead(ctx, alice.ID, reminder.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := e.svc.ListNotifications(ctx, alice.ID, NotificationQuery{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, model.NotifyConnectionRequest, unread[0].Type)

	n, err := e.svc.MarkAllNotificationsRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err = e.svc.NotificationStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Unread)

	// Bob sees none of it.
	_, err = e.svc.MarkNotificationRead(ctx, bob.ID, reminder.ID)
	assert.True(t, apperr.IsAuthorization(err))
	assert.True(t, apperr.IsAuthorization(e.svc.DeleteNotification(ctx, bob.ID, reminder.ID)))

	require.NoError(t, e.svc.DeleteNotification(ctx, alice.ID, reminder.ID))
	all, err := e.svc.ListNotifications(ctx, alice.ID, NotificationQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateNotification_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	tests := []struct {
		name  string
		in    CreateNotificationInput
		field string
	}{
		{"blank title", CreateNotificationInput{Type: model.NotifySystemUpdate, Title: "   "}, "title"},
		{"unknown type", CreateNotificationInput{Type: "gossip", Title: "x"}, "notification_type"},
		{"unknown priority", CreateNotificationInput{Type: model.NotifySystemUpdate, Title: "x", Priority: "asap"}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateNotification(ctx, alice.ID, tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}

	_ = bob
	_, err := e.svc.CreateNotification(ctx, "", CreateNotificationInput{Type: model.NotifySystemUpdate, Title: "x"})
	assert.True(t, apperr.IsAuthorization(err))
}

func TestNotificationPreferences_GateDeliveryOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	prefs := model.NotificationPreferences{ThreatAlerts: true, ConnectionRequests: true, Messages: false}
	_, err := e.svc.UpdateSettings(ctx, bob.ID, UpdateSettingsInput{NotificationPreferences: &prefs})
	require.NoError(t, err)

	conv, err := e.svc.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND notification_type = 'message'`, bob.ID))
	assert.Empty(t, e.dispatcher.ofType(model.NotifyMessage))

	// Connection requests are still delivered.
	_, err = e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	assert.Len(t, e.dispatcher.ofType(model.NotifyConnectionRequest), 1)
}
