package xchan_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/e-zhydzetski/wsgate/pkg/xchan"
	"gotest.tools/v3/assert"
)

func TestConcurrentClose(t *testing.T) {
	ch := xchan.MakeSafe[int](
		xchan.WithTestRetard(time.Millisecond),
	)
	const concurrent = 10

	var wg sync.WaitGroup
	wg.Add(concurrent)

	var closedMx sync.Mutex
	closed := 0
	syncCh := make(chan struct{})
	for i := 0; i < concurrent; i++ {
		go func() {
			defer wg.Done()
			<-syncCh
			if ch.Close() {
				closedMx.Lock()
				closed++
				closedMx.Unlock()
			}
		}()
	}
	close(syncCh)

	wg.Wait()
	assert.Equal(t, closed, 1)
}

func TestReceiveAndClose(t *testing.T) {
	ch := xchan.MakeSafe[struct{}]()
	go func() {
		<-ch.Ch()
	}()
	runtime.Gosched()
	ch.Close()
}

func TestSendAndClose(t *testing.T) {
	ch := xchan.MakeSafe[struct{}]()
	go func() {
		ch.Send(struct{}{})
	}()
	runtime.Gosched()
	ch.Close()
}

func TestSendAfterClose(t *testing.T) {
	ch := xchan.MakeSafe[string](xchan.WithBuffer(1))
	assert.Assert(t, ch.Send("first"))
	ch.Close()
	assert.Assert(t, !ch.Send("second"))

	v, ok := <-ch.Ch()
	assert.Assert(t, ok)
	assert.Equal(t, v, "first")
	_, ok = <-ch.Ch()
	assert.Assert(t, !ok)
}
