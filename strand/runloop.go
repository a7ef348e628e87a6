package strand

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

// RunLoop is a single-threaded executor draining a priority queue of
// (time, observer) pairs, tiebroken by FIFO insertion counter. It holds a
// mutex over its queue and a condition variable for wake-ups; the mutex is
// released while a callback runs, so re-entrant DeferAt calls from within
// a callback (self-defer) are safe.
type RunLoop struct {
	life *lifetime.Lifetime
	clk  clock.Clock

	mu    sync.Mutex
	cond  *sync.Cond
	items runQueue
	seq   uint64

	ownerGoid atomic.Int64 // goroutine id of the worker driving Run(), 0 until it starts
}

// NewRunLoop builds a RunLoop strand on clk, bound to life. The caller
// must invoke Run (typically in its own goroutine, as Thread does) to
// start draining the queue; a RunLoop that is never run just accumulates
// deferred actions until its lifetime stops.
func NewRunLoop(life *lifetime.Lifetime, clk clock.Clock) *RunLoop {
	r := &RunLoop{life: life, clk: clk}
	r.cond = sync.NewCond(&r.mu)

	life.InsertHook(func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})

	return r
}

func (r *RunLoop) Lifetime() *lifetime.Lifetime { return r.life }
func (r *RunLoop) Clock() clock.Clock           { return r.clk }
func (r *RunLoop) Now() time.Time               { return r.clk.Now() }

// IsCurrent reports whether the calling goroutine is this run-loop's own
// worker, i.e. whether it's being called from inside one of the run-loop's
// own scheduled callbacks. False before Run has started.
func (r *RunLoop) IsCurrent() bool {
	owner := r.ownerGoid.Load()
	return owner != 0 && owner == goid.Get()
}

func (r *RunLoop) DeferAt(t time.Time, obs ScheduledObserver) {
	r.mu.Lock()
	if r.life.IsStopped() {
		r.mu.Unlock()
		return
	}
	r.seq++
	heap.Push(&r.items, runItem{at: t, seq: r.seq, obs: obs})
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Run drains the queue until life stops. It blocks the calling goroutine;
// Thread calls it on a dedicated worker goroutine.
func (r *RunLoop) Run() {
	r.ownerGoid.Store(goid.Get())

	for {
		if r.life.IsStopped() {
			return
		}
		r.waitAndStep()
		if r.life.IsStopped() {
			return
		}
	}
}

// waitAndStep blocks until either the next item's deadline has arrived or
// the lifetime stops, then runs every item whose deadline has passed.
func (r *RunLoop) waitAndStep() {
	r.mu.Lock()
	for {
		if r.life.IsStopped() {
			r.mu.Unlock()
			return
		}
		if len(r.items) == 0 {
			r.cond.Wait()
			continue
		}
		now := r.clk.Now()
		if !r.items[0].at.After(now) {
			break
		}
		d := r.items[0].at.Sub(now)
		r.mu.Unlock()

		timerCh, stop := r.clk.NewTimer(d)
		select {
		case <-timerCh:
		case <-r.life.Stopping():
			stop()
			return
		}
		stop()

		r.mu.Lock()
	}

	for len(r.items) > 0 && !r.items[0].at.After(r.clk.Now()) && !r.life.IsStopped() {
		it := heap.Pop(&r.items).(runItem)
		r.mu.Unlock()

		var nextAt time.Time
		rescheduled := false
		it.obs.Next(func(at time.Time) {
			rescheduled = true
			nextAt = at
		})

		r.mu.Lock()
		if rescheduled {
			if !r.life.IsStopped() {
				r.seq++
				heap.Push(&r.items, runItem{at: nextAt, seq: r.seq, obs: it.obs})
			}
		} else {
			r.mu.Unlock()
			it.obs.Complete()
			r.mu.Lock()
		}
	}
	r.mu.Unlock()
}

type runItem struct {
	at  time.Time
	seq uint64
	obs ScheduledObserver
}

type runQueue []runItem

func (q runQueue) Len() int { return len(q) }
func (q runQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}
func (q runQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *runQueue) Push(x any)   { *q = append(*q, x.(runItem)) }
func (q *runQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
