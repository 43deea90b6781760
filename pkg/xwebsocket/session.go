package xwebsocket

import (
	"context"
	"net"
)

// WSSession is driven by a single goroutine: Consume is called until it returns an error,
// then Close is called with that error.
type WSSession interface {
	Consume() error
	Close(err error) // should be idempotent
}

type WSSessionFactoryFunc func(ctx context.Context, conn net.Conn) WSSession

// consume runs the session until its first error. If ctx is done earlier the session is closed with ctx.Err().
func consume(ctx context.Context, sess WSSession) {
	closedCh := make(chan struct{})
	defer close(closedCh)

	go func() {
		select {
		case <-ctx.Done():
			sess.Close(ctx.Err())
		case <-closedCh:
		}
	}()

	for {
		if err := sess.Consume(); err != nil {
			sess.Close(err)
			return
		}
	}
}
