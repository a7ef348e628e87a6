package strand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestImmediateDeferAtRunsAfterDeadline(t *testing.T) {
	life := lifetime.New()
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewImmediate(life, clk)

	done := make(chan struct{})
	go func() {
		Once(s, clk.Now().Add(10*time.Millisecond), func() { close(done) })
	}()

	select {
	case <-done:
		t.Fatal("ran before the deadline advanced")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(10 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("did not run after advancing past the deadline")
	}
}

func TestImmediateSelfDeferLoops(t *testing.T) {
	life := lifetime.New()
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewImmediate(life, clk)

	var n int
	completed := make(chan struct{})
	obs := FromFuncs(func(resched Reschedule) {
		n++
		if n < 3 {
			resched(clk.Now().Add(time.Millisecond))
		}
	}, func() { close(completed) })

	go s.DeferAt(clk.Now(), obs)

	for i := 0; i < 3; i++ {
		time.Sleep(5 * time.Millisecond)
		clk.Advance(time.Millisecond)
	}

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("observer never completed")
	}
	assert.Equal(t, 3, n)
}

func TestImmediateAbortsOnLifetimeStop(t *testing.T) {
	life := lifetime.New()
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewImmediate(life, clk)

	ranNext := make(chan struct{}, 1)
	doneWaiting := make(chan struct{})
	go func() {
		s.DeferAt(clk.Now().Add(time.Hour), FromFuncs(func(Reschedule) {
			ranNext <- struct{}{}
		}, nil))
		close(doneWaiting)
	}()

	time.Sleep(10 * time.Millisecond)
	life.Stop()

	select {
	case <-doneWaiting:
	case <-time.After(time.Second):
		t.Fatal("DeferAt did not abort on lifetime stop")
	}
	select {
	case <-ranNext:
		t.Fatal("next ran despite lifetime stop")
	default:
	}
}

func TestRunLoopOrdersByTimeThenFIFO(t *testing.T) {
	life := lifetime.New()
	clk := clock.NewManual(time.Unix(0, 0))
	rl := NewRunLoop(life, clk)
	go rl.Run()
	defer life.Stop()

	var order []int
	done := make(chan struct{}, 4)
	record := func(i int) func(Reschedule) {
		return func(Reschedule) {
			order = append(order, i)
			done <- struct{}{}
		}
	}

	now := clk.Now()
	rl.DeferAt(now, FromFuncs(record(0), nil))
	rl.DeferAt(now, FromFuncs(record(1), nil))
	rl.DeferAt(now.Add(time.Millisecond), FromFuncs(record(2), nil))

	for i := 0; i < 2; i++ {
		<-done
	}
	clk.Advance(time.Millisecond)
	<-done

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestThreadJoinsAfterLifetimeStop(t *testing.T) {
	life := lifetime.New()
	clk := clock.System()
	th := NewThread(life, clk)

	ran := make(chan struct{})
	th.DeferAt(clk.Now(), FromFuncs(func(Reschedule) { close(ran) }, nil))
	<-ran

	life.Stop()
	th.Join()
}

func TestSharedStrandDerivedStopDoesNotStopUnderlay(t *testing.T) {
	root := lifetime.New()
	clk := clock.System()

	maker := NewSharedMaker(func() Strand {
		underLife := lifetime.New()
		return NewThread(underLife, clk)
	})

	childA := lifetime.New()
	childB := lifetime.New()
	root.Insert(childA)
	root.Insert(childB)

	sa := maker(childA)
	sb := maker(childB)
	require.NotNil(t, sa)
	require.NotNil(t, sb)

	childA.Stop()

	ran := make(chan struct{})
	sb.DeferAt(clk.Now(), FromFuncs(func(Reschedule) { close(ran) }, nil))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("underlying strand stopped after only one of two derived refs stopped")
	}

	root.Stop()
}
