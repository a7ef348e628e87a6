package rx

import (
	"sync"
	"time"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
	"github.com/go-reactive/rx/strand"
)

// FromRange is a synchronous observable: bound to a subscriber, it
// creates the observer then loops emitting first..last inclusive while
// the observer's lifetime is live, finishing with Complete. It emits at
// most last-first+1 values; if the subscriber stops the lifetime midway,
// emission halts within one value of the stop.
func FromRange(first, last int) Observable[int] {
	return NewObservable(func(ctx *Context, obs observer.Observer[int]) {
		for i := first; i <= last; i++ {
			if obs.Lifetime().IsStopped() {
				return
			}
			obs.Next(i)
		}
		if !obs.Lifetime().IsStopped() {
			obs.Complete()
		}
	})
}

// Interval schedules a self-rescheduling action on a strand derived from
// mkStrand, emitting monotonically increasing counts at
// ctx.Now()+initial+n*period for n = 0, 1, 2, ....
func Interval(mkStrand strand.Factory, initial, period time.Duration) Observable[int] {
	return NewObservable(func(ctx *Context, obs observer.Observer[int]) {
		s := mkStrand(obs.Lifetime())
		start := ctx.Now()
		count := 0

		s.DeferAt(start.Add(initial), strand.FromFuncs(func(resched strand.Reschedule) {
			obs.Next(count)
			count++
			resched(start.Add(initial + time.Duration(count)*period))
		}, func() {
			obs.Complete()
		}))
	})
}

// Filter is a lifter that forwards v only when pred(v) is true.
func Filter[V any](pred func(V) bool) Lifter[V, V] {
	return Lifter[V, V]{Lift: func(down Subscriber[V]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()
			return observer.NewDelegating[V, V](life, "filter", downObs, func(d observer.Observer[V], v V) {
				if pred(v) {
					d.Next(v)
				}
			})
		})
	}}
}

// Map is a lifter that emits f(v) for each input v.
func Map[V, W any](f func(V) W) Lifter[V, W] {
	return Lifter[V, W]{Lift: func(down Subscriber[W]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()
			return observer.NewDelegating[V, W](life, "map", downObs, func(d observer.Observer[W], v V) {
				d.Next(f(v))
			})
		})
	}}
}

// Take is an adaptor that forwards the first n values then completes; the
// (n+1)-th input, if the upstream keeps producing, is silently dropped
// rather than forwarded. n<=0 completes immediately without forwarding
// anything.
func Take[V any](n int) Adaptor[V, V] {
	return Adaptor[V, V]{Adapt: func(src Observable[V]) Observable[V] {
		return Observable[V]{Bind: func(down Subscriber[V]) Starter {
			return src.Bind(takeSubscriber(n, down))
		}}
	}}
}

func takeSubscriber[V any](n int, down Subscriber[V]) Subscriber[V] {
	return NewSubscriber(func(ctx *Context) observer.Observer[V] {
		downObs := down.Create(ctx)
		life := lifetime.New()

		var mu sync.Mutex
		count := 0
		var self *observer.Typed[V]

		self = observer.New(life, "take",
			func(v V) {
				mu.Lock()
				if count >= n {
					mu.Unlock()
					return
				}
				count++
				reached := count == n
				mu.Unlock()

				downObs.Next(v)
				if reached {
					self.Complete()
				}
			},
			func(err error) { downObs.Error(err) },
			func() { downObs.Complete() },
		)

		if n <= 0 {
			self.Complete()
		}
		return self
	})
}

// LastOrDefault is a lifter that, on upstream complete, emits the last
// observed value (or def if none was observed) then completes downstream.
// The buffered value is a scoped lifetime.State, pinned to the same
// lifetime as the observer holding it, rather than a bare closure
// variable — it's destroyed (reset to its zero value) the instant the
// observer's lifetime stops, matching spec.md's scoped-state semantics.
func LastOrDefault[V any](def V) Lifter[V, V] {
	return Lifter[V, V]{Lift: func(down Subscriber[V]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()

			last, _ := lifetime.MakeState(life, def) // life is freshly created, never stopped yet

			return observer.New(life, "last-or-default",
				func(v V) { last.Set(v) },
				func(err error) { downObs.Error(err) },
				func() {
					downObs.Next(last.Get())
					downObs.Complete()
				},
			)
		})
	}}
}

// Delay is a lifter that reschedules every signal (next/error/complete) d
// later on a strand derived from mkStrand. Relative ordering of signals
// from one upstream is preserved because a strand is serial.
func Delay[V any](mkStrand strand.Factory, d time.Duration) Lifter[V, V] {
	return Lifter[V, V]{Lift: func(down Subscriber[V]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()
			s := mkStrand(life)

			return observer.New(life, "delay",
				func(v V) { strand.Once(s, s.Now().Add(d), func() { downObs.Next(v) }) },
				func(err error) { strand.Once(s, s.Now().Add(d), func() { downObs.Error(err) }) },
				func() { strand.Once(s, s.Now().Add(d), func() { downObs.Complete() }) },
			)
		})
	}}
}

// ObserveOn is a lifter that posts every signal onto a strand derived
// from mkStrand before forwarding it. When the calling goroutine is
// already running on that strand — s.IsCurrent(), e.g. an upstream chain
// that was itself scheduled on the same run-loop worker — the signal is
// forwarded inline instead of round-tripping through DeferAt, since it
// would just be re-entering the same strand it's already on.
func ObserveOn[V any](mkStrand strand.Factory) Lifter[V, V] {
	return Lifter[V, V]{Lift: func(down Subscriber[V]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()
			s := mkStrand(life)

			post := func(fn func()) {
				if s.IsCurrent() {
					fn()
					return
				}
				strand.Once(s, s.Now(), fn)
			}

			return observer.New(life, "observe-on",
				func(v V) { post(func() { downObs.Next(v) }) },
				func(err error) { post(func() { downObs.Error(err) }) },
				func() { post(func() { downObs.Complete() }) },
			)
		})
	}}
}

// Finally is a lifter that installs hook as a stop-hook on the observer's
// lifetime so it runs exactly once, on any termination path.
func Finally[V any](hook func()) Lifter[V, V] {
	return Lifter[V, V]{Lift: func(down Subscriber[V]) Subscriber[V] {
		return NewSubscriber(func(ctx *Context) observer.Observer[V] {
			downObs := down.Create(ctx)
			life := lifetime.New()
			life.InsertHook(hook)
			return observer.NewDelegating[V, V](life, "finally", downObs, func(d observer.Observer[V], v V) {
				d.Next(v)
			})
		})
	}}
}
