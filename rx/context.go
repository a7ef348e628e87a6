// Package rx implements the pipeline composition algebra — observable,
// subscriber, lifter, adaptor, terminator, starter — and the operator set
// built on top of lifetime, observer, and strand.
package rx

import (
	"time"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/strand"
)

// Context is the binding environment threaded through composition: a
// lifetime, a strand-factory, a clock, and an optional user payload.
// Constructing a Context creates one strand via the factory, inserts the
// strand's lifetime into the context's own lifetime, and binds the
// lifetime's stop-teardown to run on that strand — so stop callbacks and
// data callbacks are serialized on the same strand.
//
// Payload is left untyped (any) rather than a type parameter: unlike the
// rest of the algebra, the payload never participates in an operator's
// input/output types, so a generic Context[P] would only add type
// parameters callers thread through every operator signature for no
// compile-time benefit.
type Context struct {
	life         *lifetime.Lifetime
	strand       strand.Strand
	stranFactory strand.Factory
	clk          clock.Clock
	Payload      any
}

// NewContext builds a Context bound to a fresh strand produced by
// mkStrand. Per the strand.Factory contract, mkStrand already inserts the
// new strand's lifetime as a child of life, so stopping life stops the
// strand too.
func NewContext(life *lifetime.Lifetime, mkStrand strand.Factory, clk clock.Clock, payload any) *Context {
	c := &Context{stranFactory: mkStrand, clk: clk, Payload: payload}
	c.life = life
	c.strand = mkStrand(life)
	life.BindDefer(func(fn func()) {
		strand.Once(c.strand, c.strand.Now(), fn)
	})
	return c
}

func (c *Context) Lifetime() *lifetime.Lifetime { return c.life }
func (c *Context) Strand() strand.Strand        { return c.strand }
func (c *Context) Clock() clock.Clock           { return c.clk }
func (c *Context) Now() time.Time               { return c.clk.Now() }

// DeferAt schedules obs on the context's strand.
func (c *Context) DeferAt(t time.Time, obs strand.ScheduledObserver) {
	c.strand.DeferAt(t, obs)
}

// WithStrandFactory clones the context under a fresh child lifetime,
// optionally swapping the strand factory for mkStrand (pass nil to keep
// the current one), to move work onto a different strand without
// disturbing the original context. ObserveOn and Merge do not call it:
// they build their strands directly from the factory they are given.
func (c *Context) WithStrandFactory(mkStrand strand.Factory) *Context {
	if mkStrand == nil {
		mkStrand = c.stranFactory
	}
	child := lifetime.New()
	c.life.Insert(child)
	return NewContext(child, mkStrand, c.clk, c.Payload)
}
