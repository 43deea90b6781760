package xwebsocket

import (
	"context"
	"net"
	"net/http"

	"github.com/gobwas/ws"
)

// NewHandler serves websocket upgrades behind an http.Server. The session lives in the
// request goroutine; ctx is the server lifetime, since hijacked requests outlive r.Context().
func NewHandler(ctx context.Context, sessionFactoryFunc WSSessionFactoryFunc, opts ...ServerOption) http.Handler {
	o := makeServerOptions(opts)
	upgrader := ws.HTTPUpgrader{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.path != "" && r.URL.Path != o.path {
			http.NotFound(w, r)
			return
		}

		conn, rw, _, err := upgrader.Upgrade(r, w)
		if err != nil {
			return // upgrader already answered with an error status
		}

		var c net.Conn = conn
		if rw != nil && rw.Reader.Buffered() > 0 {
			c = bufferedConn{Conn: conn, r: rw.Reader}
		}

		consume(ctx, sessionFactoryFunc(ctx, connWithTimeout{
			Conn: c,
			wt:   o.writeTimeout,
			rt:   0,
		}))
	})
}
