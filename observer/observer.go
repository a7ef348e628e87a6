// Package observer implements the push-sink contract every pipeline stage
// terminates at: next/error/complete, bound to a lifetime, with exactly
// one terminal signal per observer.
package observer

import (
	"sync/atomic"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/rxerr"
)

// Observer is a push sink bound to a Lifetime. After Error or Complete
// fires, the observer's Lifetime is stopped and every subsequent Next,
// Error, or Complete call is a no-op.
type Observer[V any] interface {
	Next(v V)
	Error(err error)
	Complete()
	Lifetime() *lifetime.Lifetime
}

// Typed is the zero-cost concrete Observer flavor: it stores user
// callbacks directly rather than behind an interface boundary. Construct
// with New.
type Typed[V any] struct {
	life       *lifetime.Lifetime
	nextFn     func(V)
	errorFn    func(error)
	completeFn func()
	terminated atomic.Bool
	stage      string
}

// New builds a Typed observer bound to life. Any of next, onError, or
// onComplete may be nil, in which case that signal is a no-op.
//
// If next panics, the panic is converted to an error (UserCallbackThrew)
// and routed through onError as a normal terminal path. If onError or
// onComplete panics, that propagates uncaught: per the observer contract,
// a terminal callback throwing is a discipline violation (TerminalCallbackThrew)
// and aborts rather than recovers.
func New[V any](life *lifetime.Lifetime, stage string, next func(V), onError func(error), onComplete func()) *Typed[V] {
	return &Typed[V]{life: life, nextFn: next, errorFn: onError, completeFn: onComplete, stage: stage}
}

func (o *Typed[V]) Lifetime() *lifetime.Lifetime { return o.life }

func (o *Typed[V]) Next(v V) {
	if o.life.IsStopped() || o.nextFn == nil {
		return
	}

	var thrown any
	func() {
		defer func() { thrown = recover() }()
		o.nextFn(v)
	}()

	if thrown != nil {
		o.Error(rxerr.Wrap(rxerr.Source{Stage: o.stage}, asError(thrown)))
	}
}

func (o *Typed[V]) Error(err error) {
	if !o.terminated.CompareAndSwap(false, true) {
		return
	}
	defer o.life.Stop()
	if o.errorFn != nil {
		o.errorFn(err)
	}
}

func (o *Typed[V]) Complete() {
	if !o.terminated.CompareAndSwap(false, true) {
		return
	}
	defer o.life.Stop()
	if o.completeFn != nil {
		o.completeFn()
	}
}

func asError(v any) error {
	return rxerr.NewPanicError(v)
}
