package lifetime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStopIsIdempotentAndMonotone(t *testing.T) {
	l := New()
	assert.False(t, l.IsStopped())

	var calls atomic.Int64
	l.InsertHook(func() { calls.Add(1) })

	l.Stop()
	assert.True(t, l.IsStopped())
	l.Stop()
	l.Stop()

	assert.Equal(t, int64(1), calls.Load())
}

func TestStopIsIdempotentUnderConcurrency(t *testing.T) {
	l := New()
	var calls atomic.Int64
	l.InsertHook(func() { calls.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Stop()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestHookInsertedAfterStopRunsImmediately(t *testing.T) {
	l := New()
	l.Stop()

	ran := false
	l.InsertHook(func() { ran = true })
	assert.True(t, ran)
}

func TestHooksRunInReverseInsertionOrder(t *testing.T) {
	l := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.InsertHook(func() { order = append(order, i) })
	}
	l.Stop()

	assert.Equal(t, []int{4, 3, 2, 1, 0}, order)
}

func TestParentStopCascadesToChildren(t *testing.T) {
	parent := New()
	child := New()
	parent.Insert(child)

	var childHookRan bool
	child.InsertHook(func() { childHookRan = true })

	parent.Stop()

	assert.True(t, child.IsStopped())
	assert.True(t, childHookRan)
}

func TestChildStopDoesNotStopParent(t *testing.T) {
	parent := New()
	child := New()
	parent.Insert(child)

	child.Stop()

	assert.True(t, child.IsStopped())
	assert.False(t, parent.IsStopped())
}

func TestInsertIntoStoppedParentStopsChildImmediately(t *testing.T) {
	parent := New()
	parent.Stop()

	child := New()
	parent.Insert(child)

	assert.True(t, child.IsStopped())
}

func TestEraseDetachesWithoutStopping(t *testing.T) {
	parent := New()
	child := New()
	parent.Insert(child)
	parent.Erase(child)

	parent.Stop()
	assert.False(t, child.IsStopped())
}

func TestSelfInsertIsFatal(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Insert(l) })
}

func TestSelfEraseIsFatal(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Erase(l) })
}

func TestJoinBlocksUntilTeardownCompletes(t *testing.T) {
	l := New()
	var ran atomic.Bool
	l.InsertHook(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	})

	go l.Stop()
	l.Join()

	assert.True(t, ran.Load())
}

func TestGrandchildStoppedInFiniteSteps(t *testing.T) {
	root := New()
	mid := New()
	leaf := New()
	root.Insert(mid)
	mid.Insert(leaf)

	root.Stop()

	assert.True(t, mid.IsStopped())
	assert.True(t, leaf.IsStopped())
}

func TestMakeStateOnStoppedLifetimeFails(t *testing.T) {
	l := New()
	l.Stop()

	_, err := MakeState(l, 42)
	require.ErrorIs(t, err, ErrStopped)
}

func TestMakeStateDestroyedOnStop(t *testing.T) {
	l := New()
	st, err := MakeState(l, "alive")
	require.NoError(t, err)
	assert.Equal(t, "alive", st.Get())

	l.Stop()
	assert.Equal(t, "", st.Get())
}

func TestCopyStateCopiesCurrentValue(t *testing.T) {
	l1 := New()
	l2 := New()

	st1, err := MakeState(l1, 7)
	require.NoError(t, err)
	st1.Set(9)

	st2, err := CopyState(l2, st1)
	require.NoError(t, err)
	assert.Equal(t, 9, st2.Get())

	st1.Set(100)
	assert.Equal(t, 9, st2.Get(), "copies are independent cells")
}

func TestBindDeferRoutesTeardown(t *testing.T) {
	l := New()

	var routed bool
	l.BindDefer(func(fn func()) {
		routed = true
		fn()
	})

	ranHook := false
	l.InsertHook(func() { ranHook = true })

	l.Stop()
	assert.True(t, routed)
	assert.True(t, ranHook)
}

func TestStoppingFiresBeforeTeardownCompletes(t *testing.T) {
	l := New()
	release := make(chan struct{})
	l.InsertHook(func() { <-release })

	go l.Stop()

	select {
	case <-l.Stopping():
	case <-time.After(time.Second):
		t.Fatal("Stopping() did not fire while teardown was still blocked")
	}

	select {
	case <-l.done:
		t.Fatal("done fired before its blocking hook returned")
	default:
	}

	close(release)
	l.Join()
}

func TestEraseDuringConcurrentChildStopIsSafe(t *testing.T) {
	parent := New()
	child := New()
	parent.Insert(child)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); child.Stop() }()
	go func() { defer wg.Done(); parent.Erase(child) }()
	wg.Wait()

	parent.Stop()
	assert.True(t, child.IsStopped())
}
