package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Mohi32415/TaskMate/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChallenges struct {
	byID map[int64]*model.Challenge
}

func (f *fakeChallenges) GetByID(_ context.Context, id int64) (*model.Challenge, error) {
	if ch, ok := f.byID[id]; ok {
		return ch, nil
	}
	return nil, assert.AnError
}

type fakeMessages struct {
	created []*model.Message
	err     error
}

func (f *fakeMessages) Create(_ context.Context, challengeID, userID int64, content, clientID string, synced bool) (*model.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	msg := &model.Message{
		ID:          int64(len(f.created) + 1),
		ChallengeID: challengeID,
		UserID:      userID,
		Content:     content,
		ClientID:    clientID,
		Synced:      synced,
		CreatedAt:   time.Now(),
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func newRelayFixture(t *testing.T) (*Relay, *Hub, *fakeMessages) {
	t.Helper()
	participant := int64(2)
	challenges := &fakeChallenges{byID: map[int64]*model.Challenge{
		10: {ID: 10, CreatorID: 1, ParticipantID: &participant, Status: model.ChallengeActive},
	}}
	messages := &fakeMessages{}
	hub := NewHub(0)
	return NewRelay(hub, challenges, messages), hub, messages
}

func chatFrame(t *testing.T, challengeID int64, content, clientID string) []byte {
	t.Helper()
	raw, err := json.Marshal(model.WSEvent{
		Type:        model.EventChatMessage,
		ChallengeID: challengeID,
		Content:     content,
		ClientID:    clientID,
	})
	require.NoError(t, err)
	return raw
}

func TestRelayChatPersistsThenDeliversToBothMembers(t *testing.T) {
	relay, hub, messages := newRelayFixture(t)

	creatorConn, participantConn := &fakeConn{}, &fakeConn{}
	creator := hub.Add(creatorConn)
	other := hub.Add(participantConn)
	hub.Bind(creator, 1)
	hub.Bind(other, 2)

	relay.HandleEvent(context.Background(), creator, chatFrame(t, 10, "hello", "cid-1"))

	require.Len(t, messages.created, 1)
	assert.Equal(t, "hello", messages.created[0].Content)
	assert.Equal(t, "cid-1", messages.created[0].ClientID)
	assert.True(t, messages.created[0].Synced)

	// Sender gets the echo too, carrying the reconciliation key.
	senderEvents := creatorConn.events(t)
	require.Len(t, senderEvents, 1)
	assert.Equal(t, model.EventChatMessage, senderEvents[0].Type)

	var echoed model.Message
	require.NoError(t, json.Unmarshal(senderEvents[0].Payload, &echoed))
	assert.Equal(t, "cid-1", echoed.ClientID)
	assert.EqualValues(t, 1, echoed.UserID)

	require.Len(t, participantConn.events(t), 1)
}

func TestRelayChatRejectsNonMember(t *testing.T) {
	relay, hub, messages := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn)
	hub.Bind(c, 99) // not a member of challenge 10

	relay.HandleEvent(context.Background(), c, chatFrame(t, 10, "let me in", ""))

	assert.Empty(t, messages.created)
	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventError, events[0].Type)

	var reason string
	require.NoError(t, json.Unmarshal(events[0].Payload, &reason))
	assert.Equal(t, "unauthorized access to challenge", reason)
}

func TestRelayChatRequiresAuthentication(t *testing.T) {
	relay, hub, messages := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn) // never bound

	relay.HandleEvent(context.Background(), c, chatFrame(t, 10, "hello", ""))

	assert.Empty(t, messages.created)
	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventError, events[0].Type)
}

func TestRelayChatValidation(t *testing.T) {
	tests := []struct {
		name        string
		challengeID int64
		content     string
		wantReason  string
	}{
		{"empty content", 10, "", "invalid message format"},
		{"missing challenge id", 0, "hello", "invalid message format"},
		{"unknown challenge", 404, "hello", "challenge not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay, hub, messages := newRelayFixture(t)
			conn := &fakeConn{}
			c := hub.Add(conn)
			hub.Bind(c, 1)

			relay.HandleEvent(context.Background(), c, chatFrame(t, tt.challengeID, tt.content, ""))

			assert.Empty(t, messages.created)
			events := conn.events(t)
			require.Len(t, events, 1)
			assert.Equal(t, model.EventError, events[0].Type)

			var reason string
			require.NoError(t, json.Unmarshal(events[0].Payload, &reason))
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestRelayDropsMalformedFrames(t *testing.T) {
	relay, hub, messages := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn)
	hub.Bind(c, 1)

	relay.HandleEvent(context.Background(), c, []byte("{not json"))

	assert.Empty(t, messages.created)
	assert.Empty(t, conn.events(t))
	assert.Equal(t, 1, hub.OnlineCount()) // connection survives
}

func TestRelayRejectsUnknownEventType(t *testing.T) {
	relay, hub, _ := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn)
	hub.Bind(c, 1)

	relay.HandleEvent(context.Background(), c, []byte(`{"type":"subscribe"}`))

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventError, events[0].Type)

	var reason string
	require.NoError(t, json.Unmarshal(events[0].Payload, &reason))
	assert.Equal(t, "unknown event type: subscribe", reason)
}

func TestRelayAuthFrame(t *testing.T) {
	t.Run("binds an unbound connection", func(t *testing.T) {
		relay, hub, _ := newRelayFixture(t)
		conn := &fakeConn{}
		c := hub.Add(conn)

		relay.HandleEvent(context.Background(), c, []byte(`{"type":"auth","userId":1}`))

		assert.EqualValues(t, 1, hub.UserID(c))
		events := conn.events(t)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventAuthSuccess, events[0].Type)
	})

	t.Run("acknowledges a matching claim", func(t *testing.T) {
		relay, hub, _ := newRelayFixture(t)
		conn := &fakeConn{}
		c := hub.Add(conn)
		hub.Bind(c, 1)

		relay.HandleEvent(context.Background(), c, []byte(`{"type":"auth","userId":1}`))

		events := conn.events(t)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventAuthSuccess, events[0].Type)
	})

	t.Run("rejects a frame with no identity on an unbound connection", func(t *testing.T) {
		relay, hub, _ := newRelayFixture(t)
		conn := &fakeConn{}
		c := hub.Add(conn)

		relay.HandleEvent(context.Background(), c, []byte(`{"type":"auth"}`))

		assert.EqualValues(t, 0, hub.UserID(c))
		events := conn.events(t)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventError, events[0].Type)

		var reason string
		require.NoError(t, json.Unmarshal(events[0].Payload, &reason))
		assert.Equal(t, "auth requires a user id", reason)
	})

	t.Run("rejects a conflicting claim", func(t *testing.T) {
		relay, hub, _ := newRelayFixture(t)
		conn := &fakeConn{}
		c := hub.Add(conn)
		hub.Bind(c, 1)

		relay.HandleEvent(context.Background(), c, []byte(`{"type":"auth","userId":2}`))

		assert.EqualValues(t, 1, hub.UserID(c)) // identity unchanged
		events := conn.events(t)
		require.Len(t, events, 1)
		assert.Equal(t, model.EventError, events[0].Type)
	})
}

func TestRelayPostChatIsSharedWithRESTPath(t *testing.T) {
	relay, hub, messages := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn)
	hub.Bind(c, 2)

	// The REST fallback posts on behalf of an authenticated user with no
	// websocket involved in the write path.
	msg, err := relay.PostChat(context.Background(), 1, 10, "replayed offline", "cid-replay", true)
	require.NoError(t, err)
	assert.Equal(t, "cid-replay", msg.ClientID)
	require.Len(t, messages.created, 1)

	// The participant's live connection still gets the fan-out.
	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventChatMessage, events[0].Type)
}

func TestRelayNotifyChallengeProgress(t *testing.T) {
	relay, hub, _ := newRelayFixture(t)

	conn := &fakeConn{}
	c := hub.Add(conn)
	hub.Bind(c, 2)

	relay.NotifyChallengeProgress(2, model.ProgressNotification{
		ChallengeID: 10,
		Message:     "Alex has completed their challenge for today!",
		Date:        "2026-09-01",
	})

	events := conn.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventChallengeProgress, events[0].Type)

	var n model.ProgressNotification
	require.NoError(t, json.Unmarshal(events[0].Payload, &n))
	assert.EqualValues(t, 10, n.ChallengeID)
	assert.Contains(t, n.Message, "completed their challenge")
}
