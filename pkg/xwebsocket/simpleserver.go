package xwebsocket

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	addr *net.TCPAddr
}

func (s Server) Port() int {
	return s.addr.Port
}

func (s Server) Addr() string {
	return s.addr.String()
}

// StartSimpleServer upgrades raw TCP connections without an HTTP server in front.
// Every accepted session is consumed in its own goroutine and closed with ctx.Err() on shutdown.
func StartSimpleServer(ctx context.Context, g *errgroup.Group, addr string, sessionFactoryFunc WSSessionFactoryFunc, opts ...ServerOption) (*Server, error) {
	o := makeServerOptions(opts)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	upgrader := ws.Upgrader{
		OnRequest: o.checkURI,
	}

	g.Go(func() error {
		// opened sessions monitoring to cleanup after ctx.Done
		var sessionIDSeq uint64
		var mx sync.Mutex
		sessions := map[uint64]WSSession{}
		defer func() { // runs after the accept loop; upgrades still in flight see nil sessions and drop their conn
			mx.Lock()
			for _, session := range sessions {
				session.Close(ctx.Err())
			}
			sessions = nil // marks shutdown for late upgrades, delete from nil map is ok
			mx.Unlock()
		}()

		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil // listener closed by shutdown
				}
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					continue
				}
				return err
			}

			go func(conn net.Conn) {
				// upgrade off the accept loop, so a silent client can't stall other connections
				if err := upgrade(upgrader, conn, o.handshakeTimeout); err != nil {
					_ = conn.Close()
					return
				}

				mx.Lock()
				if sessions == nil { // server is shutting down
					mx.Unlock()
					_ = conn.Close()
					return
				}
				sessionIDSeq++ // unique ID of the session
				sid := sessionIDSeq
				sess := sessionFactoryFunc(ctx, connWithTimeout{
					Conn: conn,
					wt:   o.writeTimeout,
					rt:   0, // can't use read timeout in wait model (without events)
				})
				sessions[sid] = sess
				mx.Unlock()

				for {
					if err := sess.Consume(); err != nil {
						sess.Close(err)
						break
					}
				}
				mx.Lock()
				delete(sessions, sid) // session closed
				mx.Unlock()
			}(conn)
		}
	})

	return &Server{
		addr: ln.Addr().(*net.TCPAddr),
	}, nil
}

func upgrade(upgrader ws.Upgrader, conn net.Conn, timeout time.Duration) error {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	if _, err := upgrader.Upgrade(conn); err != nil {
		return err
	}
	return conn.SetDeadline(time.Time{})
}
