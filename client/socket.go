package client

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Send when the socket is not open;
// callers fall back to the offline queue.
var ErrNotConnected = errors.New("websocket not connected")

// Event mirrors the server's realtime envelope.
type Event struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	UserID      int64           `json:"userId,omitempty"`
	ChallengeID int64           `json:"challengeId,omitempty"`
	Content     string          `json:"content,omitempty"`
	ClientID    string          `json:"clientId,omitempty"`
}

// Socket states.
const (
	stateDisconnected int32 = iota
	stateConnecting
	stateOpen
)

type listener struct {
	id int
	fn func(Event)
}

// Socket maintains one realtime connection: it dials, authenticates
// during the handshake via the access token, dispatches inbound events
// to listeners, and redials after a fixed delay whenever the connection
// drops. Listeners survive reconnects.
type Socket struct {
	url            string
	token          string
	userID         int64
	reconnectDelay time.Duration

	state atomic.Int32
	done  chan struct{}
	once  sync.Once

	mu        sync.Mutex
	conn      *websocket.Conn
	listeners []listener
	nextID    int
	messages  []Event
	onOnline  func(bool)
}

// NewSocket prepares a socket for the given ws:// or wss:// endpoint.
// Connect must be called to start it.
func NewSocket(wsURL, token string, userID int64) *Socket {
	return &Socket{
		url:            wsURL,
		token:          token,
		userID:         userID,
		reconnectDelay: 3 * time.Second,
		done:           make(chan struct{}),
	}
}

// Connect starts the dial/read/redial loop in the background.
func (s *Socket) Connect() {
	go s.run()
}

func (s *Socket) run() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.state.Store(stateConnecting)
		conn, _, err := websocket.DefaultDialer.Dial(s.dialURL(), nil)
		if err != nil {
			s.state.Store(stateDisconnected)
			if !s.sleep() {
				return
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.state.Store(stateOpen)
		s.notifyOnline(true)

		// Legacy auth frame; the handshake already authenticated us.
		_ = s.Send(Event{Type: "auth", UserID: s.userID})

		s.readLoop(conn)

		s.state.Store(stateDisconnected)
		s.notifyOnline(false)
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()

		if !s.sleep() {
			return
		}
	}
}

// sleep waits one reconnect delay; false means the socket was closed.
func (s *Socket) sleep() bool {
	select {
	case <-s.done:
		return false
	case <-time.After(s.reconnectDelay):
		return true
	}
}

func (s *Socket) dialURL() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return s.url
	}
	q := u.Query()
	q.Set("token", s.token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue // unparseable frames are dropped
		}

		s.mu.Lock()
		s.messages = append(s.messages, ev)
		fns := make([]func(Event), 0, len(s.listeners))
		for _, l := range s.listeners {
			fns = append(fns, l.fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(ev)
		}
	}
}

// Send writes an event to the server. Only valid while open; the socket
// itself never queues.
func (s *Socket) Send(ev Event) error {
	if s.state.Load() != stateOpen {
		return ErrNotConnected
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// SendChat is the online chat path: clientID is the reconciliation key
// the server echoes back in the persisted record.
func (s *Socket) SendChat(challengeID int64, content, clientID string) error {
	return s.Send(Event{
		Type:        "chat_message",
		ChallengeID: challengeID,
		Content:     content,
		ClientID:    clientID,
	})
}

// AddListener registers a handler for every inbound event and returns
// its removal func.
func (s *Socket) AddListener(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := s.listeners[:0]
		for _, l := range s.listeners {
			if l.id != id {
				kept = append(kept, l)
			}
		}
		s.listeners = kept
	}
}

// OnOnline registers a single callback invoked with true/false as the
// socket opens and closes; the sync engine uses it as its connectivity
// signal.
func (s *Socket) OnOnline(fn func(bool)) {
	s.mu.Lock()
	s.onOnline = fn
	s.mu.Unlock()
}

func (s *Socket) notifyOnline(online bool) {
	s.mu.Lock()
	fn := s.onOnline
	s.mu.Unlock()
	if fn != nil {
		fn(online)
	}
}

// Connected reports whether the socket is currently open.
func (s *Socket) Connected() bool {
	return s.state.Load() == stateOpen
}

// Messages returns a snapshot of every event received this session.
func (s *Socket) Messages() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close stops the socket permanently.
func (s *Socket) Close() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()
	})
}
