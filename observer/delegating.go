package observer

import (
	"sync/atomic"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/rxerr"
)

// Delegating is an observer that carries a downstream Observer[W] as the
// first argument to its Next callback, letting a lifter re-emit without
// recapturing the downstream in a fresh closure for every value. A and W
// are the upstream (input) and downstream (output) value types.
type Delegating[A, W any] struct {
	life           *lifetime.Lifetime
	downstream     Observer[W]
	nextFn         func(d Observer[W], v A)
	errorPolicy    Policy
	completePolicy Policy
	terminated     atomic.Bool
	stage          string
}

// Option configures a Delegating observer.
type Option[A, W any] func(*Delegating[A, W])

// WithErrorPolicy overrides the default Pass policy for the error channel.
func WithErrorPolicy[A, W any](p Policy) Option[A, W] {
	return func(d *Delegating[A, W]) { d.errorPolicy = p }
}

// WithCompletePolicy overrides the default Pass policy for the complete channel.
func WithCompletePolicy[A, W any](p Policy) Option[A, W] {
	return func(d *Delegating[A, W]) { d.completePolicy = p }
}

// NewDelegating builds a Delegating observer bound to life, forwarding to
// downstream. next is invoked for each upstream value with the downstream
// observer passed explicitly. Default policies are Pass for both error
// and complete, matching a chained observer's default (§4.3).
func NewDelegating[A, W any](life *lifetime.Lifetime, stage string, downstream Observer[W], next func(Observer[W], A), opts ...Option[A, W]) *Delegating[A, W] {
	d := &Delegating[A, W]{
		life:           life,
		downstream:     downstream,
		nextFn:         next,
		errorPolicy:    Pass,
		completePolicy: Pass,
		stage:          stage,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Delegating[A, W]) Lifetime() *lifetime.Lifetime { return d.life }

func (d *Delegating[A, W]) Next(v A) {
	if d.life.IsStopped() || d.nextFn == nil {
		return
	}

	var thrown any
	func() {
		defer func() { thrown = recover() }()
		d.nextFn(d.downstream, v)
	}()

	if thrown != nil {
		d.Error(rxerr.Wrap(rxerr.Source{Stage: d.stage}, rxerr.NewPanicError(thrown)))
	}
}

func (d *Delegating[A, W]) Error(err error) {
	if !d.terminated.CompareAndSwap(false, true) {
		return
	}

	switch d.errorPolicy {
	case Fail:
		defer d.life.Stop()
		panic(err)
	case Pass:
		defer d.life.Stop()
		d.downstream.Error(err)
	case Skip:
		d.life.Stop()
	case Ignore:
		d.terminated.Store(false)
	}
}

func (d *Delegating[A, W]) Complete() {
	if !d.terminated.CompareAndSwap(false, true) {
		return
	}

	switch d.completePolicy {
	case Fail:
		defer d.life.Stop()
		panic("observer: unexpected complete")
	case Pass:
		defer d.life.Stop()
		d.downstream.Complete()
	case Skip:
		d.life.Stop()
	case Ignore:
		d.terminated.Store(false)
	}
}
