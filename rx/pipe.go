package rx

import (
	"time"

	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
	"github.com/go-reactive/rx/strand"
)

// NewObservable builds an Observable[V] from a producer function: given a
// bound context and the observer to push into, produce populates the
// pipeline. produce runs synchronously inside Starter.Start; producers
// that need to schedule work (interval) do so on a strand and return once
// scheduling is set up, not once emission finishes.
func NewObservable[V any](produce func(ctx *Context, obs observer.Observer[V])) Observable[V] {
	return Observable[V]{
		Bind: func(sub Subscriber[V]) Starter {
			return Starter{Start: func(ctx *Context) *lifetime.Lifetime {
				obs := sub.Create(ctx)
				produce(ctx, obs)
				return ctx.Lifetime()
			}}
		},
	}
}

// NewSubscriber builds a Subscriber[V] from a create function. Per this
// module's resolution of spec.md §9's open question on subscriber/context
// lifetime ownership, the observer's lifetime returned by create is
// always inserted into the context's lifetime before being handed back,
// so stopping the context cascades to the observer uniformly.
func NewSubscriber[V any](create func(ctx *Context) observer.Observer[V]) Subscriber[V] {
	return Subscriber[V]{Create: func(ctx *Context) observer.Observer[V] {
		obs := create(ctx)
		ctx.Lifetime().Insert(obs.Lifetime())
		return obs
	}}
}

// Pipeline is a fluent wrapper around an Observable for the operators
// that preserve the value type end-to-end (filter, take, last-or-default,
// delay, observe-on, finally). Go forbids a method from introducing type
// parameters beyond its receiver's, so type-changing operators (Map,
// Merge) are applied by free functions instead — see MapPipeline and
// MergePipeline below.
type Pipeline[V any] struct {
	Obs Observable[V]
}

// From wraps an Observable in a Pipeline for fluent chaining.
func From[V any](o Observable[V]) Pipeline[V] { return Pipeline[V]{Obs: o} }

func (p Pipeline[V]) Filter(pred func(V) bool) Pipeline[V] {
	return Pipeline[V]{Obs: Pipe(p.Obs, Filter(pred))}
}

func (p Pipeline[V]) Take(n int) Pipeline[V] {
	return Pipeline[V]{Obs: PipeAdaptor(p.Obs, Take[V](n))}
}

func (p Pipeline[V]) LastOrDefault(def V) Pipeline[V] {
	return Pipeline[V]{Obs: Pipe(p.Obs, LastOrDefault(def))}
}

func (p Pipeline[V]) Delay(mkStrand strand.Factory, d time.Duration) Pipeline[V] {
	return Pipeline[V]{Obs: Pipe(p.Obs, Delay[V](mkStrand, d))}
}

func (p Pipeline[V]) ObserveOn(mkStrand strand.Factory) Pipeline[V] {
	return Pipeline[V]{Obs: Pipe(p.Obs, ObserveOn[V](mkStrand))}
}

func (p Pipeline[V]) Finally(hook func()) Pipeline[V] {
	return Pipeline[V]{Obs: Pipe(p.Obs, Finally[V](hook))}
}

// Bind terminates the pipeline against sub, yielding a Starter.
func (p Pipeline[V]) Bind(sub Subscriber[V]) Starter {
	return PipeSubscriber(p.Obs, sub)
}

// MapPipeline applies Map to p. It is a free function rather than a
// Pipeline[V] method because Go forbids a method from introducing a type
// parameter (W) beyond its receiver's.
func MapPipeline[V, W any](p Pipeline[V], f func(V) W) Pipeline[W] {
	return Pipeline[W]{Obs: Pipe(p.Obs, Map(f))}
}

// MergePipeline applies Merge to a pipeline of observables, flattening it
// into a single Pipeline[V]. Free function for the same reason as
// MapPipeline: the receiver Pipeline[Observable[V]] can't bind V as a
// fresh method type parameter.
func MergePipeline[V any](p Pipeline[Observable[V]], mkStrand strand.Factory, opts ...MergeOption) Pipeline[V] {
	return Pipeline[V]{Obs: PipeAdaptor(p.Obs, Merge[V](mkStrand, opts...))}
}
