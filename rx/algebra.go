package rx

import (
	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
)

// Starter is a bound program: invoking Start against a context builds the
// full observer chain and runs the producer, returning the context's
// lifetime. A Starter is a pure value and may be started at most once per
// context (starting the same Starter against a second context is legal;
// reusing one context against two Starters is not, since a context's
// strand/defer wiring is consumed by the first bind).
type Starter struct {
	Start func(ctx *Context) *lifetime.Lifetime
}

// Subscriber is a consumer recipe: given a context, it produces an
// Observer[V] bound to (a lifetime inserted into) that context.
type Subscriber[V any] struct {
	Create func(ctx *Context) observer.Observer[V]
}

// Observable is a producer recipe: binding a Subscriber[V] to it yields a
// Starter. Observable is a pure value and may be bound more than once.
type Observable[V any] struct {
	Bind func(sub Subscriber[V]) Starter
}

// Lifter transforms a downstream Subscriber[W] into an upstream
// Subscriber[V] — operators that don't change the shape of the pipeline
// source (filter, map, last-or-default) are Lifters. The direction is
// deliberately contravariant: data flows V (upstream) through the lifter
// to W (downstream), so composing a Lifter onto an Observable wraps the
// *subscriber* side, matching spec.md §4.6's Subscriber→Subscriber
// transformer definition.
type Lifter[V, W any] struct {
	Lift func(down Subscriber[W]) Subscriber[V]
}

// Adaptor transforms an Observable[V] into an Observable[W] — of this
// module's operators, only take and merge reshape the producer itself
// and are Adaptors; every other operator (filter, map, last-or-default,
// delay, observe-on, finally) is a Lifter per spec.md §4.7.
type Adaptor[V, W any] struct {
	Adapt func(src Observable[V]) Observable[W]
}

// Terminator is an Adaptor fused with a Subscriber: it already knows both
// ends of the pipeline and only needs a context to start.
type Terminator[V any] struct {
	Terminate func(src Observable[V]) Starter
}

// AsInterface erases an Observable's static type parameter at a pipeline
// boundary, matching original_source/rx.h's as_interface pattern. In Go,
// generics plus the Bind closure already provide this erasure (there is
// no deep template chain to flatten), so AsInterface is a documented
// identity: its purpose is purely to mark, by name, the point in a
// pipeline where the original implementation would insert a vtable.
func (o Observable[V]) AsInterface() Observable[V] { return o }

// AsInterface erases a Subscriber's static type parameter at a pipeline
// boundary. See Observable.AsInterface.
func (s Subscriber[V]) AsInterface() Subscriber[V] { return s }

// Pipe composes an Observable with a Lifter, yielding a new Observable
// whose value type is the Lifter's downstream type. This is the
// Observable|Lifter row of spec.md §4.6's pipe table.
func Pipe[V, W any](o Observable[V], l Lifter[V, W]) Observable[W] {
	return Observable[W]{
		Bind: func(down Subscriber[W]) Starter {
			return o.Bind(l.Lift(down))
		},
	}
}

// PipeSubscriber composes an Observable with a Subscriber, yielding a
// Starter. This is the Observable|Subscriber row of spec.md §4.6.
func PipeSubscriber[V any](o Observable[V], sub Subscriber[V]) Starter {
	return o.Bind(sub)
}

// PipeAdaptor composes an Observable with an Adaptor, yielding a new
// Observable. This is the Observable|Adaptor row of spec.md §4.6.
func PipeAdaptor[V, W any](o Observable[V], a Adaptor[V, W]) Observable[W] {
	return a.Adapt(o)
}

// PipeTerminator composes an Observable with a Terminator, yielding a
// Starter. This is the Observable|Terminator row of spec.md §4.6.
func PipeTerminator[V any](o Observable[V], t Terminator[V]) Starter {
	return t.Terminate(o)
}

// ComposeLifters fuses two Lifters into one: Lifter[V,W] then Lifter[W,X]
// lifted together behave as a single Lifter[V,X]. This is the
// Lifter|Lifter row of spec.md §4.6.
func ComposeLifters[V, W, X any](l1 Lifter[V, W], l2 Lifter[W, X]) Lifter[V, X] {
	return Lifter[V, X]{
		Lift: func(down Subscriber[X]) Subscriber[V] {
			return l1.Lift(l2.Lift(down))
		},
	}
}

// LiftIntoSubscriber composes a Lifter with the Subscriber it wraps. This
// is the Lifter|Subscriber row of spec.md §4.6.
func LiftIntoSubscriber[V, W any](l Lifter[V, W], down Subscriber[W]) Subscriber[V] {
	return l.Lift(down)
}

// ComposeAdaptors fuses two same-typed Adaptors into one. This is the
// Adaptor|Adaptor row of spec.md §4.6 restricted to the case this module
// actually needs: Take is the only same-typed Adaptor this repo ships, so
// chaining two of them never needs the fully general Adaptor[V,W] ∘
// Adaptor[W,X] form.
func ComposeAdaptors[V any](a1, a2 Adaptor[V, V]) Adaptor[V, V] {
	return Adaptor[V, V]{
		Adapt: func(src Observable[V]) Observable[V] {
			return a2.Adapt(a1.Adapt(src))
		},
	}
}

// AdaptIntoSubscriber composes an Adaptor with a Subscriber into a
// Terminator. This is the Adaptor|Subscriber row of spec.md §4.6.
func AdaptIntoSubscriber[V, W any](a Adaptor[V, W], sub Subscriber[W]) Terminator[V] {
	return Terminator[V]{
		Terminate: func(src Observable[V]) Starter {
			return a.Adapt(src).Bind(sub)
		},
	}
}
