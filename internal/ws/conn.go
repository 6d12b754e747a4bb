package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quizwhiz/backend/internal/game"
)

const writeWait = 10 * time.Second

var errConnClosed = errors.New("connection closed")

// Conn adapts a gorilla websocket connection to the engine's Conn interface.
// A dedicated reader goroutine pumps inbound text frames into a channel so
// the engine can receive with per-call timeouts; gorilla read deadlines
// poison the connection and cannot be used for that. Writes are serialized
// with a mutex because both tasks of a session send.
type Conn struct {
	ws *websocket.Conn

	mu sync.Mutex // guards writes

	inbound chan string
	quit    chan struct{} // closed by Close to release a blocked reader
	done    chan struct{} // closed when the reader exits
	readErr error         // set before done is closed

	closeOnce sync.Once
}

func newConn(wsConn *websocket.Conn) *Conn {
	c := &Conn{
		ws:      wsConn,
		inbound: make(chan string, 16),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.done)
	c.ws.SetReadLimit(64 * 1024)
	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		// The send must stay interruptible: with inbound full and the
		// session no longer receiving, only quit can release the reader.
		select {
		case c.inbound <- string(msg):
		case <-c.quit:
			c.readErr = errConnClosed
			return
		}
	}
}

// Send writes one text frame.
func (c *Conn) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// SendJSON writes v as a JSON text frame.
func (c *Conn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(string(data))
}

// Receive blocks until a text frame arrives or the connection fails.
func (c *Conn) Receive() (string, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-c.done:
		return c.takeBuffered()
	}
}

// ReceiveTimeout is Receive with a deadline; expiry returns
// game.ErrReceiveTimeout and leaves the connection usable.
func (c *Conn) ReceiveTimeout(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-c.inbound:
		return msg, nil
	case <-c.done:
		return c.takeBuffered()
	case <-timer.C:
		return "", game.ErrReceiveTimeout
	}
}

// takeBuffered hands out frames that arrived before the reader died, then
// the terminal read error.
func (c *Conn) takeBuffered() (string, error) {
	select {
	case msg := <-c.inbound:
		return msg, nil
	default:
		return "", c.readErr
	}
}

// Close tears the connection down; it unblocks the reader, whether parked in
// ReadMessage or on a full inbound buffer, and any pending receive.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.ws.Close()
	})
}
