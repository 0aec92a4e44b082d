// Package streamclient talks to the solve stream server over WebSocket.
package streamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/tilewfc/internal/server"
)

// ServerError is an error event sent back by the server
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server: " + e.Message
}

// Handlers receive events while a solve streams in. Nil handlers are skipped.
type Handlers struct {
	Start func(server.StartEvent)
	Step  func(server.StepEvent)
}

// Client is one connection to the stream server. Requests are serialised.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Dial connects to a stream server URL such as ws://localhost:8080/ws.
// header may carry an Origin.
func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// TileSets asks the server which tile sets it can solve with
func (c *Client) TileSets(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := c.watch(ctx)
	defer stop()

	if err := c.conn.WriteJSON(server.Request{Action: server.ActionTileSets}); err != nil {
		return nil, c.ctxErr(ctx, err)
	}

	typ, data, err := c.next(ctx)
	if err != nil {
		return nil, err
	}
	switch typ {
	case server.EventTileSets:
		var ev server.TileSetsEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, err
		}
		return ev.Names, nil
	case server.EventError:
		return nil, decodeServerError(data)
	}
	return nil, fmt.Errorf("unexpected %q event", typ)
}

// Solve sends req and reads events until the solve is done.
func (c *Client) Solve(ctx context.Context, req server.Request, h Handlers) (server.DoneEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := c.watch(ctx)
	defer stop()

	req.Action = server.ActionSolve
	if err := c.conn.WriteJSON(req); err != nil {
		return server.DoneEvent{}, c.ctxErr(ctx, err)
	}

	for {
		typ, data, err := c.next(ctx)
		if err != nil {
			return server.DoneEvent{}, err
		}

		switch typ {
		case server.EventStart:
			var ev server.StartEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				return server.DoneEvent{}, err
			}
			if h.Start != nil {
				h.Start(ev)
			}
		case server.EventStep:
			var ev server.StepEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				return server.DoneEvent{}, err
			}
			if h.Step != nil {
				h.Step(ev)
			}
		case server.EventDone:
			var ev server.DoneEvent
			err := json.Unmarshal(data, &ev)
			return ev, err
		case server.EventError:
			return server.DoneEvent{}, decodeServerError(data)
		default:
			return server.DoneEvent{}, fmt.Errorf("unexpected %q event", typ)
		}
	}
}

// watch unblocks pending reads once ctx is done
func (c *Client) watch(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
}

func (c *Client) next(ctx context.Context) (string, []byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", nil, c.ctxErr(ctx, err)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", nil, fmt.Errorf("malformed event: %w", err)
	}
	return head.Type, data, nil
}

// ctxErr prefers the context's error over the I/O error it caused
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func decodeServerError(data []byte) error {
	var ev server.ErrorEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	return &ServerError{Message: ev.Message}
}
