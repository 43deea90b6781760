package xwebsocket

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gobwas/ws"
)

const (
	defaultWriteTimeout     = 1 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
)

type ServerOption func(o *serverOptions)

type serverOptions struct {
	path             string
	writeTimeout     time.Duration
	handshakeTimeout time.Duration
}

// WithPath accepts upgrades only for the given request path.
func WithPath(path string) ServerOption {
	return func(o *serverOptions) {
		o.path = path
	}
}

func WithWriteTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.writeTimeout = d
	}
}

// WithHandshakeTimeout bounds the upgrade of a raw TCP connection; zero disables it.
func WithHandshakeTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.handshakeTimeout = d
	}
}

func makeServerOptions(opts []ServerOption) serverOptions {
	o := serverOptions{
		writeTimeout:     defaultWriteTimeout,
		handshakeTimeout: defaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var errPathNotFound = errors.New("websocket endpoint not found")

func (o serverOptions) checkURI(uri []byte) error {
	if o.path == "" {
		return nil
	}
	u, err := url.ParseRequestURI(string(uri))
	if err != nil || u.Path != o.path {
		return ws.RejectConnectionError(
			ws.RejectionStatus(http.StatusNotFound),
			ws.RejectionReason(errPathNotFound.Error()),
		)
	}
	return nil
}
