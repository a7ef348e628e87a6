// Package strand implements the serial, time-ordered execution queues that
// every scheduled pipeline stage runs on: an immediate (inline) strand, a
// single-threaded run-loop strand, and a detached-thread strand built on
// top of it. Every strand is bound to a lifetime and stops draining its
// queue the instant that lifetime stops.
package strand

import (
	"time"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

// Reschedule is the handle a ScheduledObserver's Next callback receives.
// Calling it with a new time re-arms the observer on the same strand
// instead of completing it (self-defer, §4.4). Not calling it before Next
// returns means the action is done and Complete follows.
type Reschedule func(at time.Time)

// ScheduledObserver is the re-entrant action a strand drives: Next is
// invoked once the deadline has passed, and may call its Reschedule
// argument to arm another deadline; Complete runs once, after a Next that
// did not reschedule. An action still pending when the strand's lifetime
// stops is dropped without a Complete call.
type ScheduledObserver interface {
	Next(resched Reschedule)
	Complete()
}

// Strand is a serial, time-ordered executor bound to a lifetime.
type Strand interface {
	// Lifetime is the strand's own lifetime: stopping it drains and
	// discards any pending deferred actions without running them.
	Lifetime() *lifetime.Lifetime
	// Clock is the time source this strand schedules against.
	Clock() clock.Clock
	// Now is a convenience for Clock().Now().
	Now() time.Time
	// DeferAt schedules obs to run no earlier than the strand's clock
	// reaches t. Within one strand, actions run in non-decreasing time
	// order, ties broken by insertion (FIFO). DeferAt is a no-op if the
	// strand's lifetime has already stopped.
	DeferAt(t time.Time, obs ScheduledObserver)
	// IsCurrent reports whether the calling goroutine is already running
	// on this strand (e.g. inside one of its own scheduled callbacks). A
	// strand with no dedicated worker goroutine (Immediate) is current for
	// every caller, since it executes inline wherever it's called.
	IsCurrent() bool
}

// Factory builds a new Strand bound to a fresh lifetime inserted as a
// child of life — never to life itself, so callers can freely insert the
// returned Strand.Lifetime() elsewhere without risking a self-insertion
// panic. Operators that move work to a different execution context
// (observe_on, merge, interval) accept a Factory rather than a concrete
// Strand so the caller decides where things run.
type Factory func(life *lifetime.Lifetime) Strand

// funcObserver adapts two plain closures into a ScheduledObserver, for
// callers that need no dedicated type (Once, interval's self-rescheduling
// action, the shared strand's forwarding wrapper).
type funcObserver struct {
	next     func(resched Reschedule)
	complete func()
}

// FromFuncs builds a ScheduledObserver from a next and complete closure.
func FromFuncs(next func(resched Reschedule), complete func()) ScheduledObserver {
	return &funcObserver{next: next, complete: complete}
}

func (f *funcObserver) Next(resched Reschedule) { f.next(resched) }
func (f *funcObserver) Complete() {
	if f.complete != nil {
		f.complete()
	}
}

// Once schedules a single, non-rescheduling action at t: fn runs exactly
// once, no earlier than t, then the observer completes.
func Once(s Strand, t time.Time, fn func()) {
	s.DeferAt(t, FromFuncs(func(Reschedule) { fn() }, nil))
}
