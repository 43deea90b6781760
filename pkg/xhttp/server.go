package xhttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 5 * time.Second

type Server struct {
	addr *net.TCPAddr
}

func (s Server) Port() int {
	return s.addr.Port
}

func (s Server) Addr() string {
	return s.addr.String()
}

type Option func(s *http.Server, o *options)

type options struct {
	shutdownTimeout time.Duration
}

// WithShutdownTimeout limits how long shutdown waits for in-flight requests. Hijacked connections are not waited for.
func WithShutdownTimeout(d time.Duration) Option {
	return func(_ *http.Server, o *options) {
		o.shutdownTimeout = d
	}
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *http.Server, _ *options) {
		s.ReadHeaderTimeout = d
	}
}

func StartServer(ctx context.Context, g *errgroup.Group, addr string, handler http.Handler, opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	server.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}
	o := options{
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(server, &o)
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), o.shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error { // modified part of server.ListenAndServer
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return &Server{
		addr: ln.Addr().(*net.TCPAddr),
	}, nil
}
