package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Mohi32415/TaskMate/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	// Outbound frames that take longer than this are treated as a dead peer.
	writeWait = 10 * time.Second

	// Per-connection outbound queue. A peer that stops draining fills it
	// and gets dropped instead of blocking the relay or the sweep.
	sendQueueSize = 64
)

type WSHandler struct {
	hub     *service.Hub
	relay   *service.Relay
	authSvc *service.AuthService
}

func NewWSHandler(hub *service.Hub, relay *service.Relay, authSvc *service.AuthService) *WSHandler {
	return &WSHandler{hub: hub, relay: relay, authSvc: authSvc}
}

// Upgrade authenticates during the handshake: the access token travels in
// the query string and the connection is bound to its user before the
// first frame, so nothing sent early is ever silently ignored.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "token required"})
	}

	userID, username, err := h.authSvc.ValidateAccessToken(token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
	}

	c.Locals("user_id", userID)
	c.Locals("username", username)
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(int64)

	conn := newWSConn(c)
	client := h.hub.Add(conn)
	h.hub.Bind(client, userID)
	defer func() {
		h.hub.Remove(client)
		_ = conn.Close()
	}()

	c.SetPongHandler(func(string) error {
		h.hub.Heartbeat(client)
		return nil
	})

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		// Any traffic proves the peer is alive, not just pongs.
		h.hub.Heartbeat(client)
		h.relay.HandleEvent(context.Background(), client, msg)
	}
}

var (
	errSendBufferFull = errors.New("send buffer full")
	errConnClosed     = errors.New("connection closed")
)

// wsWriter is the slice of the websocket connection the outbound side
// needs; tests use fakes.
type wsWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type outFrame struct {
	messageType int
	data        []byte
}

// wsConn adapts a websocket connection to the hub's transport interface.
// All writes go through a buffered queue drained by a single writer
// goroutine under a write deadline, so the relay fan-out and the sweep
// never block on a stalled peer: a full queue is an error, and the hub
// drops the connection.
type wsConn struct {
	conn wsWriter
	send chan outFrame
	done chan struct{}
	once sync.Once
}

func newWSConn(conn wsWriter) *wsConn {
	w := &wsConn{
		conn: conn,
		send: make(chan outFrame, sendQueueSize),
		done: make(chan struct{}),
	}
	go w.writeLoop()
	return w
}

func (w *wsConn) writeLoop() {
	for {
		select {
		case f := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(f.messageType, f.data); err != nil {
				_ = w.conn.Close()
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *wsConn) enqueue(messageType int, data []byte) error {
	select {
	case <-w.done:
		return errConnClosed
	default:
	}
	select {
	case w.send <- outFrame{messageType: messageType, data: data}:
		return nil
	default:
		return errSendBufferFull
	}
}

func (w *wsConn) WriteText(data []byte) error {
	return w.enqueue(websocket.TextMessage, data)
}

func (w *wsConn) Ping() error {
	return w.enqueue(websocket.PingMessage, nil)
}

func (w *wsConn) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.conn.Close()
}
