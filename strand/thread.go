package strand

import (
	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

// Thread wraps a RunLoop driven by a detached worker goroutine. The
// goroutine starts the instant a Thread is created and exits once the
// strand's lifetime stops; Join blocks until both the lifetime's teardown
// and the worker goroutine itself have finished.
type Thread struct {
	*RunLoop
	workerDone chan struct{}
}

// NewThread starts a run-loop on a fresh goroutine, bound to life.
func NewThread(life *lifetime.Lifetime, clk clock.Clock) *Thread {
	rl := NewRunLoop(life, clk)
	t := &Thread{RunLoop: rl, workerDone: make(chan struct{})}
	go func() {
		defer close(t.workerDone)
		rl.Run()
	}()
	return t
}

// NewThreadFactory returns a Factory producing thread-backed run-loop
// strands on clk, each with a fresh child lifetime inserted under the
// lifetime passed in (per the Factory contract, the returned Strand never
// reuses that lifetime object directly).
func NewThreadFactory(clk clock.Clock) Factory {
	return func(life *lifetime.Lifetime) Strand {
		child := lifetime.New()
		life.Insert(child)
		return NewThread(child, clk)
	}
}

// Join blocks until the strand's worker goroutine has exited and the
// lifetime's own teardown has completed.
func (t *Thread) Join() {
	t.life.Join()
	<-t.workerDone
}

var _ Strand = (*Thread)(nil)
