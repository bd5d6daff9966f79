package handler

import (
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingWriter emulates a peer that stopped draining its TCP buffer:
// every write blocks until released.
type stallingWriter struct {
	mu        sync.Mutex
	release   chan struct{}
	deadlines int
	written   []int
	closed    bool
}

func newStallingWriter() *stallingWriter {
	return &stallingWriter{release: make(chan struct{})}
}

func (s *stallingWriter) WriteMessage(messageType int, _ []byte) error {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, messageType)
	return nil
}

func (s *stallingWriter) SetWriteDeadline(time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines++
	return nil
}

func (s *stallingWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestWSConnWritesNeverBlockOnStalledPeer(t *testing.T) {
	inner := newStallingWriter()
	t.Cleanup(func() { close(inner.release) })
	w := newWSConn(inner)
	defer w.Close()

	// The writer goroutine is stuck on the first frame; queueing more must
	// still return immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendQueueSize; i++ {
			_ = w.WriteText([]byte("queued"))
		}
		_ = w.Ping()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writes blocked on a stalled peer")
	}
}

func TestWSConnFullSendBufferIsAnError(t *testing.T) {
	inner := newStallingWriter()
	t.Cleanup(func() { close(inner.release) })
	w := newWSConn(inner)
	defer w.Close()

	// The stalled writer drains at most one in-flight frame, so the queue
	// must fill within sendQueueSize+1 accepted writes.
	var overflowed bool
	for i := 0; i < sendQueueSize*2; i++ {
		if err := w.WriteText([]byte("fill")); err != nil {
			assert.ErrorIs(t, err, errSendBufferFull)
			overflowed = true
			break
		}
	}
	require.True(t, overflowed, "queue never filled")
	assert.ErrorIs(t, w.Ping(), errSendBufferFull)
}

func TestWSConnWritesAfterCloseFail(t *testing.T) {
	inner := newStallingWriter()
	w := newWSConn(inner)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteText([]byte("late")), errConnClosed)
	assert.ErrorIs(t, w.Ping(), errConnClosed)

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.True(t, inner.closed)
}

func TestWSConnWriterSetsDeadlines(t *testing.T) {
	inner := newStallingWriter()
	close(inner.release) // peer drains normally
	w := newWSConn(inner)
	defer w.Close()

	require.NoError(t, w.WriteText([]byte("hello")))
	require.NoError(t, w.Ping())

	require.Eventually(t, func() bool {
		inner.mu.Lock()
		defer inner.mu.Unlock()
		return len(inner.written) == 2
	}, 2*time.Second, time.Millisecond)

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Equal(t, 2, inner.deadlines)
	assert.Equal(t, []int{websocket.TextMessage, websocket.PingMessage}, inner.written)
}
