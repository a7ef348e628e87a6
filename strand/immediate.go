package strand

import (
	"time"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

// Immediate is the strand that defers inline on the calling goroutine:
// DeferAt blocks the caller in sleep_until(t), then invokes Next directly.
// If the observer self-defers, Immediate loops and sleeps again; otherwise
// it calls Complete. The sleep aborts as soon as the strand's lifetime (or
// a lifetime passed to NewImmediate as the governing one) stops, so a
// pipeline built entirely on the immediate strand never blocks past stop.
type Immediate struct {
	life *lifetime.Lifetime
	clk  clock.Clock
}

// NewImmediate builds an Immediate strand whose lifetime is life.
func NewImmediate(life *lifetime.Lifetime, clk clock.Clock) *Immediate {
	return &Immediate{life: life, clk: clk}
}

// NewImmediateFactory returns a Factory producing immediate strands on clk,
// each with a fresh child lifetime inserted under the lifetime passed in
// (per the Factory contract, the returned Strand never reuses that
// lifetime object directly).
func NewImmediateFactory(clk clock.Clock) Factory {
	return func(life *lifetime.Lifetime) Strand {
		child := lifetime.New()
		life.Insert(child)
		return NewImmediate(child, clk)
	}
}

func (s *Immediate) Lifetime() *lifetime.Lifetime { return s.life }
func (s *Immediate) Clock() clock.Clock           { return s.clk }
func (s *Immediate) Now() time.Time               { return s.clk.Now() }

// IsCurrent is always true: Immediate has no dedicated worker goroutine,
// so whichever goroutine calls into it is, by construction, running on it.
func (s *Immediate) IsCurrent() bool { return true }

func (s *Immediate) DeferAt(t time.Time, obs ScheduledObserver) {
	for {
		if s.life.IsStopped() {
			return
		}
		if !s.sleepUntil(t) {
			return
		}
		if s.life.IsStopped() {
			return
		}

		var nextAt time.Time
		rescheduled := false
		obs.Next(func(at time.Time) {
			rescheduled = true
			nextAt = at
		})

		if !rescheduled {
			obs.Complete()
			return
		}
		t = nextAt
	}
}

// sleepUntil blocks until s.clk reaches t or the lifetime stops, whichever
// comes first. Returns false if the lifetime stopped during the wait.
func (s *Immediate) sleepUntil(t time.Time) bool {
	d := t.Sub(s.clk.Now())
	if d <= 0 {
		return true
	}

	timerCh, stop := s.clk.NewTimer(d)
	defer stop()

	select {
	case <-timerCh:
		return true
	case <-s.life.Stopping():
		return false
	}
}
