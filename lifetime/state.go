package lifetime

import "sync"

// State is a handle to a value of type P whose destruction is pinned to
// the end of a Lifetime. State is copyable as a handle: copies share the
// same underlying value and lifetime. Get is only valid while the owning
// lifetime is live; operators that capture a State in a closure must test
// IsStopped before calling Get.
type State[P any] struct {
	lifetime *Lifetime
	cell     *cell[P]
}

type cell[P any] struct {
	mu  sync.Mutex
	val P
}

// MakeState allocates a value of type P pinned to l. It fails with
// ErrStopped if l has already stopped. The value is destroyed (reset to
// its zero value) when l stops.
func MakeState[P any](l *Lifetime, value P) (State[P], error) {
	c := &cell[P]{val: value}
	st := State[P]{lifetime: l, cell: c}

	ok := l.addTeardown(func() {
		c.mu.Lock()
		var zero P
		c.val = zero
		c.mu.Unlock()
	})
	if !ok {
		return State[P]{}, ErrStopped
	}
	return st, nil
}

// CopyState allocates a sibling state on l whose initial value is copied
// from other. It fails with ErrStopped if l has already stopped.
func CopyState[P any](l *Lifetime, other State[P]) (State[P], error) {
	other.cell.mu.Lock()
	v := other.cell.val
	other.cell.mu.Unlock()
	return MakeState(l, v)
}

// Get returns the current value. Valid only while the owning lifetime is
// live; callers should check Lifetime.IsStopped first if the lifetime may
// already have ended.
func (s State[P]) Get() P {
	s.cell.mu.Lock()
	defer s.cell.mu.Unlock()
	return s.cell.val
}

// Set updates the current value.
func (s State[P]) Set(v P) {
	s.cell.mu.Lock()
	s.cell.val = v
	s.cell.mu.Unlock()
}

// Lifetime returns the lifetime this state is pinned to.
func (s State[P]) Lifetime() *Lifetime {
	return s.lifetime
}
