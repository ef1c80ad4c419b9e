package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

func TestConnection_AcceptFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	c, err := e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, " let's connect ")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionPending, c.Status)
	assert.Equal(t, "let's connect", c.Message)

	requests := e.dispatcher.ofType(model.NotifyConnectionRequest)
	require.Len(t, requests, 1)
	assert.Equal(t, bob.ID, requests[0].UserID)
	assert.Equal(t, "New Connection Request", requests[0].Title)
	assert.Equal(t, c.ID, requests[0].Metadata["connection_id"])

	// The requester cannot accept their own request.
	_, err = e.svc.RespondToConnection(ctx, alice.ID, c.ID, model.ConnectionAccepted)
	assert.True(t, apperr.IsAuthorization(err))

	accepted, err := e.svc.RespondToConnection(ctx, bob.ID, c.ID, model.ConnectionAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionAccepted, accepted.Status)
	assert.True(t, accepted.UpdatedAt.After(c.UpdatedAt))

	updates := e.dispatcher.ofType(model.NotifyConnectionRequest)
	require.Len(t, updates, 2)
	assert.Equal(t, alice.ID, updates[1].UserID)
	assert.Equal(t, "Your connection request was accepted!", updates[1].Body)
	assert.Equal(t, "accepted", updates[1].Metadata["status"])

	// Terminal for accept/reject.
	_, err = e.svc.RespondToConnection(ctx, bob.ID, c.ID, model.ConnectionRejected)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "status", apperr.FieldOf(err))

	// Either side may block from any state, once.
	blocked, err := e.svc.RespondToConnection(ctx, alice.ID, c.ID, model.ConnectionBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionBlocked, blocked.Status)
	updates = e.dispatcher.ofType(model.NotifyConnectionRequest)
	require.Len(t, updates, 3)
	assert.Equal(t, bob.ID, updates[2].UserID, "the blocked side is told, not the blocker")
	_, err = e.svc.RespondToConnection(ctx, bob.ID, c.ID, model.ConnectionBlocked)
	assert.True(t, apperr.IsValidation(err))

	_, err = e.svc.RespondToConnection(ctx, bob.ID, c.ID, model.ConnectionPending)
	assert.True(t, apperr.IsValidation(err))
}

func TestConnection_RejectAndBlockFromPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)

	c1, err := e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	rejected, err := e.svc.RespondToConnection(ctx, bob.ID, c1.ID, model.ConnectionRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionRejected, rejected.Status)

	// Rejected is terminal for the pair in both directions.
	_, err = e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "again")
	assert.True(t, apperr.IsConflict(err), "%v", err)
	_, err = e.svc.SendConnectionRequest(ctx, bob.ID, alice.ID, "")
	assert.True(t, apperr.IsConflict(err), "%v", err)

	c2, err := e.svc.SendConnectionRequest(ctx, carol.ID, alice.ID, "")
	require.NoError(t, err)
	blocked, err := e.svc.RespondToConnection(ctx, carol.ID, c2.ID, model.ConnectionBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionBlocked, blocked.Status)

	all, err := e.svc.ListConnections(ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	onlyBlocked, err := e.svc.ListConnections(ctx, alice.ID, model.ConnectionBlocked)
	require.NoError(t, err)
	require.Len(t, onlyBlocked, 1)
	assert.Equal(t, c2.ID, onlyBlocked[0].ID)

	_, err = e.svc.ListConnections(ctx, alice.ID, "friends")
	assert.True(t, apperr.IsValidation(err))
}

func TestConnection_RequesterBlockNotifiesRequested(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	c, err := e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	_, err = e.svc.RespondToConnection(ctx, alice.ID, c.ID, model.ConnectionBlocked)
	require.NoError(t, err)

	toBob := notificationsFor(e.dispatcher.ofType(model.NotifyConnectionRequest), bob.ID)
	require.Len(t, toBob, 2)
	assert.Equal(t, "New Connection Request", toBob[0].Title)
	assert.Equal(t, "Connection Request Update", toBob[1].Title)
	assert.Equal(t, "blocked", toBob[1].Metadata["status"])

	assert.Empty(t, notificationsFor(e.dispatcher.all(), alice.ID))
	assert.Equal(t, 0, e.countRows(t, `SELECT COUNT(*) FROM notifications WHERE user_id = ?`, alice.ID))
}

func TestConnection_RequestRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	_, err := e.svc.SendConnectionRequest(ctx, alice.ID, alice.ID, "")
	assert.True(t, apperr.IsValidation(err), "self request: %v", err)

	_, err = e.svc.SendConnectionRequest(ctx, alice.ID, "id-9999", "")
	assert.True(t, apperr.IsNotFound(err), "missing user: %v", err)

	_, err = e.svc.SendConnectionRequest(ctx, "", bob.ID, "")
	assert.True(t, apperr.IsAuthorization(err), "anonymous: %v", err)

	_, err = e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	// One row per unordered pair.
	_, err = e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	assert.True(t, apperr.IsConflict(err), "repeat: %v", err)
	_, err = e.svc.SendConnectionRequest(ctx, bob.ID, alice.ID, "")
	assert.True(t, apperr.IsConflict(err), "reciprocal: %v", err)

	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM user_connections`))
}

func TestConnection_SymmetricDenial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)

	c, err := e.svc.SendConnectionRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	for _, principal := range []string{alice.ID, bob.ID} {
		_, err := e.svc.GetConnection(ctx, principal, c.ID)
		require.NoError(t, err, principal)
	}

	const missing = "id-missing"
	attempts := []struct {
		name string
		call func(id string) error
	}{
		{"read", func(id string) error { _, err := e.svc.GetConnection(ctx, carol.ID, id); return err }},
		{"update", func(id string) error {
			_, err := e.svc.RespondToConnection(ctx, carol.ID, id, model.ConnectionBlocked)
			return err
		}},
		{"delete", func(id string) error { return e.svc.DeleteConnection(ctx, carol.ID, id) }},
	}
	for _, a := range attempts {
		t.Run(a.name, func(t *testing.T) {
			existing := a.call(c.ID)
			absent := a.call(missing)
			require.True(t, apperr.IsAuthorization(existing), "existing: %v", existing)
			require.True(t, apperr.IsAuthorization(absent), "absent: %v", absent)

			de, da := apperr.Describe(existing), apperr.Describe(absent)
			assert.Equal(t, c.ID, de.ID)
			assert.Equal(t, missing, da.ID)
			de.ID, da.ID = "", ""
			assert.Equal(t, da, de)
		})
	}

	// Participants cannot delete either; the row is intact.
	assert.True(t, apperr.IsAuthorization(e.svc.DeleteConnection(ctx, alice.ID, c.ID)))
	got, err := e.svc.GetConnection(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionPending, got.Status)
}
