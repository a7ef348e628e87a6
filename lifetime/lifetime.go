// Package lifetime implements the cancellation scope graph that every
// other package in this module is built on: a nestable, thread-safe
// lifetime node that aggregates child lifetimes, stop-hooks, and
// scoped-state destructors.
package lifetime

import (
	"sync"
	"sync/atomic"
)

// DeferRunner routes the actual teardown work for a Stop call. The
// default runner invokes fn synchronously on the calling goroutine; a
// context installs an alternative runner via BindDefer so that teardown
// is serialized with data callbacks on the context's strand instead of
// running inline on whatever goroutine called Stop.
type DeferRunner func(fn func())

func inlineRunner(fn func()) { fn() }

// Lifetime is a cancellation scope node. A Lifetime is created explicitly,
// stopped at most once (Stop is idempotent), nests child lifetimes, and
// owns an ordered list of stop-hooks and scoped-state destructors that run
// once, in reverse insertion order, after it stops.
//
// A Lifetime is safe for concurrent use from multiple goroutines.
type Lifetime struct {
	mu sync.Mutex

	children map[*Lifetime]struct{}
	teardown []func()
	runner   DeferRunner

	parentErase func() // weak back-reference; detaches self from parent on stop

	stopped     atomic.Bool
	stoppingCh  chan struct{} // closed the instant Stop begins, before teardown
	done        chan struct{} // closed once teardown has fully completed
}

// New creates a fresh, running Lifetime with no parent.
func New() *Lifetime {
	return &Lifetime{
		children:   make(map[*Lifetime]struct{}),
		runner:     inlineRunner,
		stoppingCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Stopping returns a channel that closes the instant Stop is called,
// before teardown (child stopping, hooks) has run. Strands use this to
// abort a blocking wait (e.g. sleep_until) immediately rather than
// waiting for the full Join to signal.
func (l *Lifetime) Stopping() <-chan struct{} {
	return l.stoppingCh
}

// IsStopped reports whether the lifetime has been stopped. Once true it
// never reports false again. Safe to call without additional synchronization.
func (l *Lifetime) IsStopped() bool {
	return l.stopped.Load()
}

// Insert attaches child as a dependent of l. If l is already stopped,
// child is stopped immediately instead of being tracked. When child later
// stops (for any reason), it automatically erases itself from l.
//
// Insert is fatal if child == l: a lifetime cannot be its own child.
func (l *Lifetime) Insert(child *Lifetime) {
	if child == l {
		panic("lifetime: cannot insert a lifetime into itself")
	}

	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		child.Stop()
		return
	}
	l.children[child] = struct{}{}
	l.mu.Unlock()

	child.mu.Lock()
	child.parentErase = func() { l.Erase(child) }
	alreadyStopped := child.stopped.Load()
	child.mu.Unlock()

	if alreadyStopped {
		l.Erase(child)
	}
}

// Erase detaches child from l without stopping it.
//
// Erase is fatal if child == l.
func (l *Lifetime) Erase(child *Lifetime) {
	if child == l {
		panic("lifetime: cannot erase a lifetime from itself")
	}
	l.mu.Lock()
	delete(l.children, child)
	l.mu.Unlock()
}

// InsertHook registers a thunk to run when l stops. If l is already
// stopped, the thunk runs immediately on the calling goroutine.
func (l *Lifetime) InsertHook(hook func()) {
	if l.addTeardown(hook) {
		return
	}
	hook()
}

// addTeardown appends fn to the teardown list if l is not yet stopped,
// returning true on success. Returns false if l is already stopped, in
// which case the caller is responsible for running (or rejecting) fn.
func (l *Lifetime) addTeardown(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() {
		return false
	}
	l.teardown = append(l.teardown, fn)
	return true
}

// BindDefer installs an alternative execution routing for the stop
// protocol: subsequent Stop calls route their teardown through runner
// instead of running inline. Has no effect once l has already stopped.
func (l *Lifetime) BindDefer(runner DeferRunner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() {
		return
	}
	l.runner = runner
}

// Stop atomically transitions l to stopped and routes teardown through
// the currently bound DeferRunner. Stop is idempotent: concurrent or
// repeated calls block until the single teardown in progress completes.
func (l *Lifetime) Stop() {
	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		l.Join()
		return
	}
	l.stopped.Store(true)
	close(l.stoppingCh)

	children := l.children
	l.children = nil
	hooks := l.teardown
	l.teardown = nil
	runner := l.runner
	l.runner = inlineRunner
	parentErase := l.parentErase
	l.mu.Unlock()

	runner(func() { l.runTeardown(children, hooks, parentErase) })
}

func (l *Lifetime) runTeardown(children map[*Lifetime]struct{}, hooks []func(), parentErase func()) {
	for child := range children {
		child.Stop()
		child.Join()
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}

	if parentErase != nil {
		parentErase()
	}

	close(l.done)
}

// Join blocks the calling goroutine until l's stop teardown has completed.
// If Stop has never been called, Join blocks until it is.
func (l *Lifetime) Join() {
	<-l.done
}
