package xchan

import (
	"sync"
	"time"
)

type Opt func(o *opts)

type opts struct {
	testRetarder func()
	buffer       int
}

func WithTestRetard(pauseDuration time.Duration) Opt {
	return func(o *opts) {
		o.testRetarder = func() {
			time.Sleep(pauseDuration)
		}
	}
}

// WithBuffer makes the underlying channel buffered.
func WithBuffer(size int) Opt {
	return func(o *opts) {
		o.buffer = size
	}
}

// MakeSafe returns a channel that may be closed concurrently with Send, and more than once.
func MakeSafe[T any](options ...Opt) *Safe[T] {
	o := opts{
		testRetarder: func() {}, // default without retarder
	}
	for _, opt := range options {
		opt(&o)
	}
	return &Safe[T]{
		ch:           make(chan T, o.buffer),
		closedCh:     make(chan struct{}),
		testRetarder: o.testRetarder,
	}
}

type Safe[T any] struct {
	mx sync.RWMutex
	ch chan T

	closeMx  sync.Mutex
	closedCh chan struct{}

	testRetarder func()
}

func (s *Safe[T]) Ch() <-chan T {
	return s.ch
}

func (s *Safe[T]) Close() bool {
	if alreadyClosed := func() bool {
		s.closeMx.Lock()
		defer s.closeMx.Unlock()
		select {
		case <-s.closedCh:
			return true
		default:
			s.testRetarder() // for concurrent close test
			close(s.closedCh)
		}
		return false
	}(); alreadyClosed {
		return false
	}
	s.mx.Lock()
	close(s.ch)
	s.mx.Unlock()
	return true
}

func (s *Safe[T]) Closed() <-chan struct{} {
	return s.closedCh
}

// Send blocks until msg is received or the channel is closed; false means msg was dropped.
func (s *Safe[T]) Send(msg T) bool {
	select {
	case <-s.closedCh:
		return false
	default:
	}
	s.mx.RLock()
	defer s.mx.RUnlock()
	select {
	case s.ch <- msg:
		return true
	case <-s.closedCh:
		return false
	}
}
