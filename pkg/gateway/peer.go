package gateway

import (
	"context"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/e-zhydzetski/wsgate/pkg/xchan"
	"github.com/e-zhydzetski/wsgate/pkg/xwebsocket"
)

// Peer is the client end of a gateway connection.
type Peer struct {
	conn net.Conn
	in   *xchan.Safe[Envelope]

	writeMx   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		conn: conn,
		in:   xchan.MakeSafe[Envelope](),
		done: make(chan struct{}),
	}
}

// Dial connects to a gateway endpoint, e.g. ws://localhost:5586/ws.
func Dial(ctx context.Context, addr string, opts ...xwebsocket.ClientOption) (*Peer, error) {
	sess, err := xwebsocket.NewClient(ctx, addr, func(_ context.Context, conn net.Conn) xwebsocket.WSSession {
		return NewPeer(conn)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return sess.(*Peer), nil
}

// Envelopes delivers envelopes received from the server; closed when the connection ends.
func (p *Peer) Envelopes() <-chan Envelope {
	return p.in.Ch()
}

func (p *Peer) Send(env Envelope) error {
	raw, err := Encode(env)
	if err != nil {
		return err
	}
	return p.SendRaw(raw)
}

// SendRaw writes raw as a text frame without validating it.
func (p *Peer) SendRaw(raw []byte) error {
	p.writeMx.Lock()
	defer p.writeMx.Unlock()
	return wsutil.WriteClientText(p.conn, raw)
}

func (p *Peer) Consume() error {
	msg, op, err := wsutil.ReadServerData(p.conn)
	if err != nil {
		return err
	}
	if op != ws.OpText {
		return &DecodeError{Err: errBinaryFrame}
	}
	env, err := Decode(msg)
	if err != nil {
		return err
	}
	if !p.in.Send(env) {
		return ErrConnClosed
	}
	return nil
}

func (p *Peer) Close(err error) {
	p.closeOnce.Do(func() {
		p.err = err
		p.in.Close()
		_ = p.conn.Close()
		close(p.done)
	})
}

func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Err returns the error the connection ended with, valid after Done.
func (p *Peer) Err() error {
	<-p.done
	return p.err
}
