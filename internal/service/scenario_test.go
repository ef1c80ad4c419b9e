package service

import (
	"context"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

// TestScenario_CoreFlow walks two users from registration to a threat alert.
func TestScenario_CoreFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.register(t, "User A", "a@x.com", "+1000")
	b := e.register(t, "User B", "b@x.com", "+1001")
	for _, u := range []model.User{a, b} {
		assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM user_settings WHERE user_id = ?`, u.ID))
	}

	conn, err := e.svc.SendConnectionRequest(ctx, a.ID, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionPending, conn.Status)

	conn, err = e.svc.RespondToConnection(ctx, b.ID, conn.ID, model.ConnectionAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionAccepted, conn.Status)
	toA := notificationsFor(e.dispatcher.ofType(model.NotifyConnectionRequest), a.ID)
	require.Len(t, toA, 1)
	assert.Equal(t, conn.ID, toA[0].Metadata["connection_id"])

	conv, err := e.svc.CreateConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	again, err := e.svc.CreateConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	msg, err := e.svc.SendMessage(ctx, a.ID, SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	require.NoError(t, err)
	conv, err = e.svc.GetConversation(ctx, a.ID, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, conv.LastMessageAt)
	assert.True(t, conv.LastMessageAt.Equal(msg.CreatedAt))
	toB := notificationsFor(e.dispatcher.ofType(model.NotifyMessage), b.ID)
	require.Len(t, toB, 1)
	assert.Equal(t, msg.ID, toB[0].Metadata["message_id"])

	e.classifier.set("I know where you live", model.ThreatCritical, model.ThreatStalking)
	d, err := e.svc.AnalyzeContent(ctx, a.ID, AnalyzeInput{Content: "I know where you live"})
	require.NoError(t, err)
	assert.Equal(t, model.ThreatCritical, d.ThreatLevel)
	alerts := notificationsFor(e.dispatcher.ofType(model.NotifyThreatAlert), a.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.PriorityUrgent, alerts[0].Priority)

	_, err = e.svc.RegisterUser(ctx, registerInput("User C", "a@x.com", "+1002"))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "email", apperr.FieldOf(err))
}

func TestObserve_MetricsAndLogs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	_, err := e.svc.GetUser(ctx, bob.ID, alice.ID)
	require.Error(t, err)

	assert.Equal(t, 3.0, promtest.ToFloat64(e.metrics.OperationsTotal.WithLabelValues("register_user", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.OperationsTotal.WithLabelValues("get_user", string(apperr.KindAuthorization))))
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.PolicyDenials.WithLabelValues("user", "read")))

	rejected := e.logs.FilterMessage("operation rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.WarnLevel, rejected[0].Level)
	fields := rejected[0].ContextMap()
	assert.Equal(t, "get_user", fields["operation"])
	assert.Equal(t, bob.ID, fields["principal"])
	assert.Len(t, e.logs.FilterMessage("operation completed").All(), 3)
}

func notificationsFor(ns []model.Notification, userID string) []model.Notification {
	var out []model.Notification
	for _, n := range ns {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
