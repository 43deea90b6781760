package xwebsocket

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/gobwas/ws"
)

type ClientOption func(c *clientOptions)

type clientOptions struct {
	dialer       ws.Dialer
	writeTimeout time.Duration
}

func ClientTLSConfig(tc *tls.Config) ClientOption {
	return func(c *clientOptions) {
		c.dialer.TLSConfig = tc
	}
}

func ClientWriteTimeout(d time.Duration) ClientOption {
	return func(c *clientOptions) {
		c.writeTimeout = d
	}
}

func NewClient(ctx context.Context, connectAddr string, sessionFactoryFunc WSSessionFactoryFunc, opts ...ClientOption) (WSSession, error) {
	o := clientOptions{
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	conn, bfr, _, err := o.dialer.Dial(ctx, connectAddr)
	if err != nil {
		return nil, err
	}
	if bfr != nil {
		// https://github.com/gobwas/ws/issues/19, may happens only if server send data immediately after handshake
		ws.PutReader(bfr)
		_ = conn.Close()
		return nil, errors.New("some frame data got in handshake buffer")
	}

	sess := sessionFactoryFunc(ctx, connWithTimeout{
		Conn: conn,
		wt:   o.writeTimeout,
		rt:   0, // can't use read timeout in wait model (without events)
	})

	go consume(ctx, sess)

	return sess, nil
}
