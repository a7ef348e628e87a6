package rx

import (
	"sync"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
)

// CollectResult is the terminal handle a Collector hands back: Wait
// blocks until the pipeline reaches a terminal signal and returns every
// value observed along with the terminal error, if any.
type CollectResult[V any] struct {
	mu     sync.Mutex
	values []V
	err    error
	done   chan struct{}
}

// Wait blocks until the collector's subscriber reaches a terminal signal.
func (r *CollectResult[V]) Wait() ([]V, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values, r.err
}

// Collector builds the terminal subscriber for spec.md §8's "| collect"
// scenarios: it appends every next value and completes its returned
// CollectResult on the pipeline's first terminal signal.
func Collector[V any]() (Subscriber[V], *CollectResult[V]) {
	res := &CollectResult[V]{done: make(chan struct{})}

	sub := NewSubscriber(func(ctx *Context) observer.Observer[V] {
		life := lifetime.New()
		return observer.New(life, "collect",
			func(v V) {
				res.mu.Lock()
				res.values = append(res.values, v)
				res.mu.Unlock()
			},
			func(err error) {
				res.mu.Lock()
				res.err = err
				res.mu.Unlock()
				close(res.done)
			},
			func() { close(res.done) },
		)
	})

	return sub, res
}
