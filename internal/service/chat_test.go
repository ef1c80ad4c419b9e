package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

func TestCreateConversation_IdempotentInEitherOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	first, err := e.svc.CreateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, first.Participant1ID, "smaller id is stored first")
	assert.Equal(t, bob.ID, first.Participant2ID)

	again, err := e.svc.CreateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	reversed, err := e.svc.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.ID, reversed.ID)
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM conversations`))
}

func TestCreateConversation_ConcurrentCallersGetOneRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			conv, err := e.svc.CreateConversation(ctx, a, b)
			ids[i], errs[i] = conv.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM conversations`))
}

func TestCreateConversation_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)

	_, err := e.svc.CreateConversation(ctx, alice.ID, alice.ID)
	assert.True(t, apperr.IsValidation(err), "self: %v", err)

	_, err = e.svc.CreateConversation(ctx, alice.ID, "id-9999")
	assert.True(t, apperr.IsNotFound(err), "missing: %v", err)

	_, err = e.svc.CreateConversation(ctx, "", alice.ID)
	assert.True(t, apperr.IsAuthorization(err), "anonymous: %v", err)

	c, err := e.svc.SendConnectionRequest(ctx, carol.ID, bob.ID, "")
	require.NoError(t, err)
	_, err = e.svc.RespondToConnection(ctx, bob.ID, c.ID, model.ConnectionBlocked)
	require.NoError(t, err)
	_, err = e.svc.CreateConversation(ctx, carol.ID, bob.ID)
	assert.True(t, apperr.IsAuthorization(err), "blocked: %v", err)
}

func TestSendMessage_BumpsConversationAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)

	conv, err := e.svc.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	m, err := e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Text)
	assert.Equal(t, model.MessageText, m.Type)

	after, err := e.svc.GetConversation(ctx, bob.ID, conv.ID)
	require.NoError(t, err)
	assert.True(t, after.LastMessageAt.After(conv.LastMessageAt))
	assert.True(t, after.LastMessageAt.Equal(m.CreatedAt))

	msgs := e.dispatcher.ofType(model.NotifyMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, bob.ID, msgs[0].UserID)
	assert.Equal(t, conv.ID, msgs[0].Metadata["conversation_id"])
	assert.Equal(t, m.ID, msgs[0].Metadata["message_id"])

	_, err = e.svc.SendMessage(ctx, bob.ID, SendMessageInput{ConversationID: conv.ID, Text: "hi back"})
	require.NoError(t, err)

	page, err := e.svc.ListMessages(ctx, bob.ID, conv.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "hi back", page[0].Text)

	all, err := e.svc.ListMessages(ctx, alice.ID, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMessages_MarksIncomingRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, _ := e.users(t)
	conv, err := e.svc.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: "hi"})
	require.NoError(t, err)
	_, err = e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: "are you there?"})
	require.NoError(t, err)
	reply, err := e.svc.SendMessage(ctx, bob.ID, SendMessageInput{ConversationID: conv.ID, Text: "yes"})
	require.NoError(t, err)

	bobList, err := e.svc.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobList, 1)
	assert.Equal(t, 2, bobList[0].UnreadCount)
	aliceView, err := e.svc.GetConversation(ctx, alice.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceView.UnreadCount)

	// The first read returns the messages as they were, then marks them.
	first, err := e.svc.ListMessages(ctx, bob.ID, conv.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.False(t, first[0].IsRead)
	assert.False(t, first[1].IsRead)

	second, err := e.svc.ListMessages(ctx, bob.ID, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.True(t, second[0].IsRead)
	assert.True(t, second[1].IsRead)
	assert.False(t, second[2].IsRead, "a reader's own messages stay unread until the other side reads them")
	assert.Equal(t, reply.ID, second[2].ID)

	bobList, err = e.svc.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bobList[0].UnreadCount)
	aliceView, err = e.svc.GetConversation(ctx, alice.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceView.UnreadCount)
	assert.Equal(t, 1, e.countRows(t, `SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND is_read = 0`, conv.ID))
}

func TestSendMessage_Rules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.users(t)
	conv, err := e.svc.CreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: "   "})
	assert.Equal(t, "message_text", apperr.FieldOf(err))

	_, err = e.svc.SendMessage(ctx, alice.ID, SendMessageInput{ConversationID: conv.ID, Text: "x", Type: "sticker"})
	assert.Equal(t, "message_type", apperr.FieldOf(err))

	// An outsider gets the same answer for a real and a missing conversation.
	outsider := func(id string) apperr.Description {
		_, err := e.svc.SendMessage(ctx, carol.ID, SendMessageInput{ConversationID: id, Text: "hi"})
		require.True(t, apperr.IsAuthorization(err), "%v", err)
		d := apperr.Describe(err)
		d.ID = ""
		return d
	}
	assert.Equal(t, outsider("id-missing"), outsider(conv.ID))

	reader := func(id string) apperr.Description {
		_, err := e.svc.ListMessages(ctx, carol.ID, id, 0, 0)
		require.True(t, apperr.IsAuthorization(err), "%v", err)
		d := apperr.Describe(err)
		d.ID = ""
		return d
	}
	assert.Equal(t, reader("id-missing"), reader(conv.ID))

	_, err = e.svc.GetConversation(ctx, carol.ID, conv.ID)
	assert.True(t, apperr.IsAuthorization(err))

	list, err := e.svc.ListConversations(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Zero(t, e.countRows(t, `SELECT COUNT(*) FROM messages`))
	assert.Empty(t, e.dispatcher.ofType(model.NotifyMessage))
}
