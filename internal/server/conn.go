package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/tilewfc/internal/throttle"
)

const writeWait = 10 * time.Second

// streamConn wraps a WebSocket connection carrying JSON messages.
type streamConn struct {
	conn     *websocket.Conn
	ip       string
	throttle *throttle.Tracker
	mu       sync.Mutex // serialises writes
}

func newStreamConn(conn *websocket.Conn, ip string, tracker *throttle.Tracker) *streamConn {
	return &streamConn{conn: conn, ip: ip, throttle: tracker}
}

// ReadRequest blocks for the next request. A malformed message is returned as
// a decode error with the connection still usable; any other error means the
// connection is gone.
func (c *streamConn) ReadRequest() (Request, error) {
	var req Request
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(message, &req); err != nil {
		return req, &decodeError{err: err}
	}
	return req, nil
}

// Send writes v as one JSON text message.
func (c *streamConn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *streamConn) Close() error {
	return c.conn.Close()
}

func (c *streamConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("malformed request: %v", e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}
