package gateway

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var ErrConnClosed = errors.New("connection closed")

// Conn is the side of a connection visible to handlers.
type Conn interface {
	ID() string
	Send(env Envelope) error
	// Close ends the connection with a normal closure; the dispatch loop stops after the current handler.
	Close() error
}

type wsConn struct {
	id string
	nc net.Conn

	writeMx   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(env Envelope) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	raw, err := Encode(env)
	if err != nil {
		return err
	}
	c.writeMx.Lock()
	defer c.writeMx.Unlock()
	return wsutil.WriteServerText(c.nc, raw)
}

func (c *wsConn) Close() error {
	return c.shutdown(true)
}

// shutdown closes the socket once, optionally telling the peer with a close frame first.
func (c *wsConn) shutdown(sendCloseFrame bool) error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if sendCloseFrame {
			c.writeMx.Lock()
			body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
			_ = ws.WriteFrame(c.nc, ws.NewCloseFrame(body))
			c.writeMx.Unlock()
		}
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

func (c *wsConn) isClosed() bool {
	return c.closed.Load()
}
