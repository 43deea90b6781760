package xwebsocket

import (
	"bufio"
	"net"
	"time"
)

// connWithTimeout sets a fresh deadline before every read (rt) or write (wt); zero disables it.
type connWithTimeout struct {
	net.Conn
	wt time.Duration
	rt time.Duration
}

func (c connWithTimeout) Read(p []byte) (int, error) {
	if c.rt > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.rt)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c connWithTimeout) Write(p []byte) (int, error) {
	if c.wt > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.wt)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

// bufferedConn drains bytes already buffered during the HTTP hijack before reading the socket.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
