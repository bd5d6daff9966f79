package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/Mohi32415/TaskMate/internal/metrics"
	"github.com/Mohi32415/TaskMate/internal/model"
)

// Conn is the transport side of a realtime connection. The websocket
// adapter in the handler package implements it; tests use fakes.
type Conn interface {
	WriteText(data []byte) error
	Ping() error
	Close() error
}

// Client is one live connection tracked by the hub. A user with several
// tabs open owns several clients.
type Client struct {
	conn   Conn
	userID int64 // 0 until authenticated; guarded by the hub mutex
	alive  bool  // answered the last ping; guarded by the hub mutex
}

// Hub is the connection registry: it owns every live connection and an
// index from user id to that user's connections, and runs the periodic
// liveness sweep. All state is guarded by mu; no handler blocks while
// holding it.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Client]struct{}
	users map[int64]map[*Client]struct{}

	sweepInterval time.Duration
	done          chan struct{}
}

func NewHub(sweepInterval time.Duration) *Hub {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	return &Hub{
		conns:         make(map[*Client]struct{}),
		users:         make(map[int64]map[*Client]struct{}),
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
	}
}

// Add registers a freshly opened connection. It starts unauthenticated;
// Bind attaches it to a user.
func (h *Hub) Add(conn Conn) *Client {
	c := &Client{conn: conn, alive: true}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	return c
}

// Bind attaches a connection to a user identity. Rebinding to a different
// user moves it between index entries.
func (h *Hub) Bind(c *Client, userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}
	if c.userID == userID {
		return
	}
	h.unbindLocked(c)
	c.userID = userID
	if userID != 0 {
		set, ok := h.users[userID]
		if !ok {
			set = make(map[*Client]struct{})
			h.users[userID] = set
		}
		set[c] = struct{}{}
	}
}

// UserID returns the identity bound to the connection, or 0.
func (h *Hub) UserID(c *Client) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.userID
}

// Heartbeat marks the connection as having answered the last ping.
func (h *Hub) Heartbeat(c *Client) {
	h.mu.Lock()
	c.alive = true
	h.mu.Unlock()
}

// Remove drops the connection from the registry. The user's index entry
// disappears with its last connection.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, tracked := h.conns[c]
	if tracked {
		delete(h.conns, c)
		h.unbindLocked(c)
	}
	total := len(h.conns)
	h.mu.Unlock()

	if tracked {
		metrics.WSConnections.Set(float64(total))
	}
}

func (h *Hub) unbindLocked(c *Client) {
	if c.userID == 0 {
		return
	}
	if set, ok := h.users[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
	c.userID = 0
}

// Deliver sends an event to every live connection owned by userID.
// Fire-and-forget: users with no connection are a silent no-op, and a
// connection that fails the write is dropped (the caller has already
// persisted anything that must survive).
func (h *Hub) Deliver(userID int64, ev *model.WSEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.conn.WriteText(data); err != nil {
			_ = c.conn.Close()
			h.Remove(c)
			continue
		}
		metrics.EventsDelivered.Inc()
	}
}

// SendTo writes an event to a single connection, typically an error reply.
func (h *Hub) SendTo(c *Client, ev *model.WSEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.conn.WriteText(data); err != nil {
		_ = c.conn.Close()
		h.Remove(c)
	}
}

// Run drives the liveness sweep until Shutdown. A connection that did not
// answer the previous ping is terminated and unregistered, so a dead
// socket lives at most two sweep intervals.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sweep()
		case <-h.done:
			return
		}
	}
}

func (h *Hub) sweep() {
	h.mu.Lock()
	var stale, live []*Client
	for c := range h.conns {
		if c.alive {
			c.alive = false
			live = append(live, c)
		} else {
			stale = append(stale, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stale {
		_ = c.conn.Close()
		h.Remove(c)
		metrics.ConnectionsSwept.Inc()
	}
	if len(stale) > 0 {
		log.Printf("WS: sweep terminated %d dead connection(s)", len(stale))
	}

	for _, c := range live {
		if err := c.conn.Ping(); err != nil {
			_ = c.conn.Close()
			h.Remove(c)
		}
	}
}

// Shutdown stops the sweep loop and closes every tracked connection.
func (h *Hub) Shutdown() {
	close(h.done)

	h.mu.Lock()
	conns := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
		h.Remove(c)
	}
}

// OnlineCount reports the number of tracked connections.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// OnlineUsers reports how many distinct users have a live connection.
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}
