package ws

import (
	"context"
	"sync"

	"github.com/foxseedlab/jimakun/internal/agent"
	"github.com/gorilla/websocket"
	"github.com/samber/do/v2"
)

// NewAgentDialer opens device-side relay connections.
func NewAgentDialer() agent.Dialer {
	return func(ctx context.Context, url string) (agent.Conn, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			return nil, err
		}
		return &clientConn{ws: conn}, nil
	}
}

type clientConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *clientConn) ReadMessage() ([]byte, error) {
	_, raw, err := c.ws.ReadMessage()
	return raw, err
}

func (c *clientConn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *clientConn) Close() error {
	return c.ws.Close()
}

func RegisterAgentDI(injector do.Injector) {
	do.ProvideValue(injector, NewAgentDialer())
}
