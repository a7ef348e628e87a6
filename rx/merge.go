package rx

import (
	"context"
	"sync"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
	"github.com/go-reactive/rx/strand"
	"golang.org/x/sync/semaphore"
)

// mergeConfig holds Merge's tunables. errorPolicy reuses observer.Policy's
// vocabulary (Fail/Pass/Skip/Ignore) for what happens to an inner error:
// Fail panics, Pass forwards it downstream and stops the merge, Skip stops
// the merge silently, Ignore drops the failing inner and keeps merging.
type mergeConfig struct {
	limit       int
	errorPolicy observer.Policy
}

// MergeOption configures Merge.
type MergeOption func(*mergeConfig)

// WithMergeLimit bounds how many inner observables may be subscribed
// concurrently; subscribeInner blocks until a slot frees up. limit<=0
// means unbounded (the default).
func WithMergeLimit(limit int) MergeOption {
	return func(c *mergeConfig) { c.limit = limit }
}

// WithMergeErrorPolicy overrides the default Pass policy for inner errors.
func WithMergeErrorPolicy(p observer.Policy) MergeOption {
	return func(c *mergeConfig) { c.errorPolicy = p }
}

// Merge is an adaptor over an observable-of-observables: it subscribes to
// every inner Observable[V] as it arrives from the outer source, each on
// its own strand/lifetime derived from mkStrand, and multiplexes their
// values onto a single downstream. It completes exactly once the outer
// source and every inner observable it produced have all completed.
func Merge[V any](mkStrand strand.Factory, opts ...MergeOption) Adaptor[Observable[V], V] {
	cfg := mergeConfig{errorPolicy: observer.Pass}
	for _, opt := range opts {
		opt(&cfg)
	}

	return Adaptor[Observable[V], V]{Adapt: func(src Observable[Observable[V]]) Observable[V] {
		return Observable[V]{Bind: func(down Subscriber[V]) Starter {
			return src.Bind(mergeSubscriber(cfg, mkStrand, down))
		}}
	}}
}

func mergeSubscriber[V any](cfg mergeConfig, mkStrand strand.Factory, down Subscriber[V]) Subscriber[Observable[V]] {
	return NewSubscriber(func(ctx *Context) observer.Observer[Observable[V]] {
		downObs := down.Create(ctx)
		life := lifetime.New()
		// inners parents every inner subscription. It is kept apart from
		// life, which stops as soon as the outer source completes, so inners
		// still in flight at that point keep running until they drain.
		inners := lifetime.New()
		ctx.Lifetime().Insert(inners)

		var sem *semaphore.Weighted
		if cfg.limit > 0 {
			sem = semaphore.NewWeighted(int64(cfg.limit))
		}

		var mu sync.Mutex
		pending := 0
		outerDone := false
		terminated := false

		finishIfDrained := func() {
			mu.Lock()
			fire := outerDone && pending == 0 && !terminated
			if fire {
				terminated = true
			}
			mu.Unlock()
			if fire {
				downObs.Complete()
			}
		}

		terminateOnce := func(fn func()) {
			mu.Lock()
			already := terminated
			if !already {
				terminated = true
			}
			mu.Unlock()
			if !already {
				fn()
			}
		}

		subscribeInner := func(inner Observable[V]) {
			mu.Lock()
			pending++
			mu.Unlock()

			if sem != nil {
				_ = sem.Acquire(context.Background(), 1)
			}

			innerCtxLife := lifetime.New()
			inners.Insert(innerCtxLife)

			innerSub := NewSubscriber(func(_ *Context) observer.Observer[V] {
				obsLife := lifetime.New()
				return observer.New(obsLife, "merge-inner",
					func(v V) { downObs.Next(v) },
					func(err error) {
						if sem != nil {
							sem.Release(1)
						}
						innerCtxLife.Stop()
						mu.Lock()
						pending--
						mu.Unlock()

						switch cfg.errorPolicy {
						case observer.Fail:
							panic(err)
						case observer.Ignore:
							finishIfDrained()
						case observer.Skip:
							terminateOnce(func() {
								life.Stop()
								inners.Stop()
							})
						default: // Pass
							terminateOnce(func() {
								downObs.Error(err)
								life.Stop()
								inners.Stop()
							})
						}
					},
					func() {
						if sem != nil {
							sem.Release(1)
						}
						innerCtxLife.Stop()
						mu.Lock()
						pending--
						mu.Unlock()
						finishIfDrained()
					},
				)
			})

			innerCtx := NewContext(innerCtxLife, mkStrand, ctx.Clock(), ctx.Payload)
			inner.Bind(innerSub).Start(innerCtx)
		}

		return observer.New(life, "merge",
			func(o Observable[V]) { subscribeInner(o) },
			func(err error) {
				terminateOnce(func() {
					downObs.Error(err)
					life.Stop()
					inners.Stop()
				})
			},
			func() {
				mu.Lock()
				outerDone = true
				mu.Unlock()
				finishIfDrained()
			},
		)
	})
}
