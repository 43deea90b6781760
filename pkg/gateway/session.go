package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/e-zhydzetski/wsgate/pkg/xwebsocket"
)

type Option func(o *options)

type options struct {
	log zerolog.Logger
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// NewSessionFactory returns a factory dispatching every accepted connection through reg.
func NewSessionFactory(reg *Registry, opts ...Option) xwebsocket.WSSessionFactoryFunc {
	return func(ctx context.Context, conn net.Conn) xwebsocket.WSSession {
		return NewSession(ctx, conn, reg, opts...)
	}
}

// Session is the dispatch loop of one connection. Each Consume reads, decodes and dispatches
// exactly one message, so handlers of a connection never overlap.
type Session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *wsConn
	registry *Registry
	log      zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

func NewSession(ctx context.Context, conn net.Conn, reg *Registry, opts ...Option) *Session {
	o := options{
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:      ctx,
		cancel:   cancel,
		conn:     &wsConn{id: id, nc: conn},
		registry: reg,
		log:      o.log.With().Str("conn_id", id).Logger(),
		done:     make(chan struct{}),
	}
	s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("connection opened")
	return s
}

func (s *Session) ID() string {
	return s.conn.id
}

func (s *Session) Consume() error {
	if s.conn.isClosed() {
		return ErrConnClosed
	}

	msg, op, err := wsutil.ReadClientData(s.conn.nc)
	if errors.Is(err, wsutil.ErrInvalidUTF8) {
		return s.reject(&DecodeError{Err: err})
	}
	if err != nil {
		return err
	}
	if op != ws.OpText {
		return s.reject(&DecodeError{Err: errBinaryFrame})
	}

	env, err := Decode(msg)
	if err != nil {
		return s.reject(err)
	}

	if err := s.dispatch(env); err != nil {
		return err
	}
	if s.conn.isClosed() {
		return ErrConnClosed
	}
	return nil
}

func (s *Session) dispatch(env Envelope) error {
	h, ok := s.registry.Lookup(env.Operation)
	if !ok {
		s.log.Error().Int("operation_code", int(env.Operation)).Msgf("no handler registered for %v", env.Operation)
		return nil
	}
	if err := h(s.ctx, s.conn, env.Data, env.Token); err != nil {
		return fmt.Errorf("handle %v: %w", env.Operation, err)
	}
	return nil
}

// reject notifies the peer about malformed input and closes the connection. err is returned to the loop owner.
func (s *Session) reject(err error) error {
	if sendErr := s.conn.Send(Envelope{Operation: OpInvalidPayload}); sendErr != nil {
		s.log.Debug().Err(sendErr).Msg("failed to send invalid_payload")
	}
	_ = s.conn.Close()
	return err
}

// Close ends the session with its terminal error. Safe to call more than once and concurrently with Consume.
func (s *Session) Close(err error) {
	s.closeOnce.Do(func() {
		s.err = err
		s.cancel()
		_ = s.conn.shutdown(!isDisconnect(err))
		s.logClose(err)
		close(s.done)
	})
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the session was closed with, valid after Done.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

func (s *Session) logClose(err error) {
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &decodeErr):
		s.log.Error().Err(err).Msg("malformed envelope, connection closed")
	case errors.Is(err, ErrConnClosed):
		s.log.Debug().Msg("connection closed by server")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.log.Debug().Err(err).Msg("connection closed on shutdown")
	case isDisconnect(err):
		s.log.Debug().Err(err).Msg("peer disconnected")
	default:
		s.log.Error().Err(err).Msg("connection terminated")
	}
}

func isDisconnect(err error) bool {
	var closed wsutil.ClosedError
	return errors.As(err, &closed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
