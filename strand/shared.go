package strand

import (
	"sync"
	"time"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

// Shared wraps a single underlying strand behind a reference-counted
// handle. Every derived strand forwards DeferAt onto the shared one and
// has its own lifetime, a child of the caller's; stopping a derived
// lifetime does not stop the underlying strand. The underlying strand (and its worker
// thread, if any) is released only once the last reference drops.
type Shared struct {
	mu       sync.Mutex
	refs     int
	underlay Strand
	makeOnce sync.Once
	make     func() Strand
}

// NewSharedMaker returns a function that lazily builds underlay on first
// use (via build) and hands out Shared handles backed by it; each handle
// derives its own lifetime as a child of the lifetime passed to it.
func NewSharedMaker(build func() Strand) Factory {
	s := &Shared{make: build}
	return func(life *lifetime.Lifetime) Strand {
		return s.derive(life)
	}
}

func (s *Shared) ensure() Strand {
	s.makeOnce.Do(func() {
		s.underlay = s.make()
	})
	return s.underlay
}

func (s *Shared) derive(parent *lifetime.Lifetime) Strand {
	underlay := s.ensure()

	s.mu.Lock()
	s.refs++
	s.mu.Unlock()

	life := lifetime.New()
	parent.Insert(life)

	d := &derivedStrand{shared: s, life: life, underlay: underlay}

	life.InsertHook(func() {
		s.mu.Lock()
		s.refs--
		last := s.refs == 0
		s.mu.Unlock()
		if last {
			s.underlay.Lifetime().Stop()
		}
	})

	return d
}

// derivedStrand is the per-caller handle returned by a Shared maker: it
// satisfies Strand by forwarding onto the shared underlying strand while
// exposing its own lifetime to callers (so Insert/Erase/Stop operate on
// the derived scope, not the shared one).
type derivedStrand struct {
	shared   *Shared
	life     *lifetime.Lifetime
	underlay Strand
}

func (d *derivedStrand) Lifetime() *lifetime.Lifetime { return d.life }
func (d *derivedStrand) Clock() clock.Clock           { return d.underlay.Clock() }
func (d *derivedStrand) Now() time.Time               { return d.underlay.Now() }
func (d *derivedStrand) IsCurrent() bool              { return d.underlay.IsCurrent() }

func (d *derivedStrand) DeferAt(t time.Time, obs ScheduledObserver) {
	if d.life.IsStopped() {
		return
	}
	d.underlay.DeferAt(t, FromFuncs(func(resched Reschedule) {
		if d.life.IsStopped() {
			return
		}
		obs.Next(resched)
	}, func() {
		if !d.life.IsStopped() {
			obs.Complete()
		}
	}))
}

var _ Strand = (*derivedStrand)(nil)
