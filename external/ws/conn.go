package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

const writeTimeout = 5 * time.Second

// Conn is one connected device. It satisfies room.Endpoint: sends are
// best effort and serialized, because gorilla permits only one
// concurrent writer per socket.
type Conn struct {
	id string
	ws *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{id: ulid.Make().String(), ws: ws}
}

func (c *Conn) ID() string { return c.id }

// Send marshals msg to the socket. Failures only log; a dead peer is
// detected and torn down by the read loop, not by senders.
func (c *Conn) Send(msg any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		slog.Warn("websocket send failed", "conn_id", c.id, "error", err)
	}
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (c *Conn) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.ws.Close()
}
