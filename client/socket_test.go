package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// wsTestServer accepts websocket clients, records their handshake tokens
// and inbound frames, and lets tests push frames back.
type wsTestServer struct {
	mu       sync.Mutex
	tokens   []string
	inbound  []Event
	conns    []*websocket.Conn
	accepted chan struct{}
	srv      *httptest.Server
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	ts := &wsTestServer{accepted: make(chan struct{}, 16)}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.tokens = append(ts.tokens, r.URL.Query().Get("token"))
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()
		ts.accepted <- struct{}{}

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if json.Unmarshal(raw, &ev) == nil {
				ts.mu.Lock()
				ts.inbound = append(ts.inbound, ev)
				ts.mu.Unlock()
			}
		}
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *wsTestServer) wsURL() string {
	return strings.Replace(ts.srv.URL, "http://", "ws://", 1) + "/ws"
}

func (ts *wsTestServer) waitAccepted(t *testing.T) {
	t.Helper()
	select {
	case <-ts.accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket connection")
	}
}

func (ts *wsTestServer) push(t *testing.T, raw []byte) {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.conns)
	conn := ts.conns[len(ts.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func (ts *wsTestServer) dropCurrent() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.conns) > 0 {
		_ = ts.conns[len(ts.conns)-1].Close()
	}
}

func (ts *wsTestServer) received() []Event {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]Event(nil), ts.inbound...)
}

func (ts *wsTestServer) handshakeTokens() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.tokens...)
}

func startSocket(t *testing.T, ts *wsTestServer) *Socket {
	t.Helper()
	s := NewSocket(ts.wsURL(), "test-token", 7)
	s.reconnectDelay = 20 * time.Millisecond
	s.Connect()
	t.Cleanup(s.Close)
	ts.waitAccepted(t)
	return s
}

func TestSocketAuthenticatesDuringHandshake(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)

	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"test-token"}, ts.handshakeTokens())

	// The legacy auth frame follows for servers that still expect it.
	require.Eventually(t, func() bool {
		return len(ts.received()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	first := ts.received()[0]
	assert.Equal(t, "auth", first.Type)
	assert.EqualValues(t, 7, first.UserID)
}

func TestSocketDispatchesEventsToListeners(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	got := make(chan Event, 4)
	s.AddListener(func(ev Event) { got <- ev })

	ts.push(t, []byte(`{"type":"chat_message","challengeId":3,"content":"hello"}`))

	select {
	case ev := <-got:
		assert.Equal(t, "chat_message", ev.Type)
		assert.EqualValues(t, 3, ev.ChallengeID)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never received the event")
	}

	assert.NotEmpty(t, s.Messages())
}

func TestSocketDropsUnparseableFrames(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	got := make(chan Event, 4)
	s.AddListener(func(ev Event) { got <- ev })

	ts.push(t, []byte(`{{{not json`))
	ts.push(t, []byte(`{"type":"auth_success"}`))

	// Only the valid frame comes through; the bad one neither kills the
	// connection nor reaches listeners.
	select {
	case ev := <-got:
		assert.Equal(t, "auth_success", ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after garbage never arrived")
	}
	assert.True(t, s.Connected())
}

func TestSocketListenerRemoval(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	kept := make(chan Event, 4)
	removed := make(chan Event, 4)
	s.AddListener(func(ev Event) { kept <- ev })
	unsubscribe := s.AddListener(func(ev Event) { removed <- ev })
	unsubscribe()

	ts.push(t, []byte(`{"type":"auth_success"}`))

	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining listener never fired")
	}
	select {
	case <-removed:
		t.Fatal("removed listener still fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSocketReconnectsAfterDrop(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	var mu sync.Mutex
	var transitions []bool
	s.OnOnline(func(online bool) {
		mu.Lock()
		transitions = append(transitions, online)
		mu.Unlock()
	})

	got := make(chan Event, 4)
	s.AddListener(func(ev Event) { got <- ev })

	ts.dropCurrent()
	ts.waitAccepted(t) // redial
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	// Listeners registered before the drop still receive events on the
	// new connection.
	ts.push(t, []byte(`{"type":"auth_success"}`))
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not survive the reconnect")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, transitions, false)
	assert.Contains(t, transitions, true)
}

func TestSocketSendWhenNotConnected(t *testing.T) {
	s := NewSocket("ws://127.0.0.1:1/ws", "tok", 1)
	err := s.SendChat(3, "hello", "cid")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSocketSendChatCarriesReconciliationKey(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.SendChat(3, "hello", "cid-42"))

	require.Eventually(t, func() bool {
		for _, ev := range ts.received() {
			if ev.Type == "chat_message" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	var chat Event
	for _, ev := range ts.received() {
		if ev.Type == "chat_message" {
			chat = ev
		}
	}
	assert.EqualValues(t, 3, chat.ChallengeID)
	assert.Equal(t, "hello", chat.Content)
	assert.Equal(t, "cid-42", chat.ClientID)
}

func TestSocketCloseStopsRedialing(t *testing.T) {
	ts := newWSTestServer(t)
	s := startSocket(t, ts)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	s.Close()
	require.Eventually(t, func() bool { return !s.Connected() }, 2*time.Second, 10*time.Millisecond)

	// No new connection should arrive after Close.
	select {
	case <-ts.accepted:
		t.Fatal("socket redialed after Close")
	case <-time.After(150 * time.Millisecond):
	}
}
