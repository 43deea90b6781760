package gateway

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"

	"github.com/e-zhydzetski/wsgate/pkg/xwebsocket"
)

// recordingConn is a Conn capturing everything a handler does.
type recordingConn struct {
	sent   []Envelope
	closed int
}

func (c *recordingConn) ID() string {
	return "test-conn"
}

func (c *recordingConn) Send(env Envelope) error {
	if c.closed > 0 {
		return ErrConnClosed
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *recordingConn) Close() error {
	c.closed++
	return nil
}

// syncBuffer collects log output written from server goroutines.
type syncBuffer struct {
	mx  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Count(substr string) int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return strings.Count(b.buf.String(), substr)
}

type testServer struct {
	addr     string
	log      *syncBuffer
	sessions chan *Session
}

// startServer runs the gateway on a random local port until the test ends.
func startServer(t *testing.T, reg *Registry) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	ts := &testServer{
		log:      &syncBuffer{},
		sessions: make(chan *Session, 16),
	}
	factory := NewSessionFactory(reg, WithLogger(zerolog.New(ts.log)))
	server, err := xwebsocket.StartSimpleServer(ctx, g, "127.0.0.1:0", func(ctx context.Context, conn net.Conn) xwebsocket.WSSession {
		sess := factory(ctx, conn).(*Session)
		ts.sessions <- sess
		return sess
	}, xwebsocket.WithPath("/ws"))
	assert.NilError(t, err)
	t.Cleanup(func() {
		cancel()
		_ = g.Wait()
	})

	ts.addr = "ws://" + server.Addr() + "/ws"
	return ts
}

func (ts *testServer) dial(t *testing.T) *Peer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	peer, err := Dial(ctx, ts.addr)
	assert.NilError(t, err)
	return peer
}

func (ts *testServer) session(t *testing.T) *Session {
	t.Helper()
	select {
	case sess := <-ts.sessions:
		return sess
	case <-time.After(time.Second):
		t.Fatal("no session accepted")
	}
	return nil
}

func receive(t *testing.T, p *Peer) Envelope {
	t.Helper()
	select {
	case env, ok := <-p.Envelopes():
		assert.Assert(t, ok, "connection closed, envelope expected")
		return env
	case <-time.After(time.Second):
		t.Fatal("no envelope received")
	}
	return Envelope{}
}

func expectClosed(t *testing.T, p *Peer) {
	t.Helper()
	select {
	case env, ok := <-p.Envelopes():
		assert.Assert(t, !ok, "unexpected envelope %v", env.Operation)
	case <-time.After(time.Second):
		t.Fatal("connection is still open")
	}
}

func reason(t *testing.T, env Envelope) string {
	t.Helper()
	var data InvalidPayloadData
	assert.NilError(t, json.Unmarshal(env.Data, &data))
	return data.Msg
}
