package rx

import (
	"testing"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/observer"
	"github.com/go-reactive/rx/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImmediateCtx() (*Context, *lifetime.Lifetime) {
	clk := clock.System()
	life := lifetime.New()
	return NewContext(life, strand.NewImmediateFactory(clk), clk, nil), life
}

// Scenario 1: from-range(1,5) | take(3) | collect => [1,2,3], one complete.
func TestScenarioFromRangeTake(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 5)).Take(3)
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
}

// Scenario 2: from-range(1,10) | filter(even) | collect => [2,4,6,8,10].
func TestScenarioFilterEven(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 10)).Filter(func(v int) bool { return v%2 == 0 })
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, values)
}

// Scenario 3: from-range(1,10) | filter(even) | take(3) | last_or_default(42)
// | collect => [6].
func TestScenarioFilterTakeLastOrDefault(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 10)).
		Filter(func(v int) bool { return v%2 == 0 }).
		Take(3).
		LastOrDefault(42)
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{6}, values)
}

// LastOrDefault on an empty (fully filtered out) source falls back to def.
func TestLastOrDefaultFallsBackOnEmptySource(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 10)).
		Filter(func(v int) bool { return v > 100 }).
		LastOrDefault(42)
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{42}, values)
}

// Invariant 9: source | map(f) | subscriber: output length equals source
// length, pointwise f-applied.
func TestMapPointwise(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := MapPipeline(From(FromRange(1, 5)), func(v int) int { return v * v })
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, values)
}

// Invariant 6: stopping a subscriber's lifetime midway halts emission
// within one value of the stop.
func TestFromRangeHaltsOnStop(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	var got []int
	var obsLife *lifetime.Lifetime
	sub := NewSubscriber(func(ctx *Context) observer.Observer[int] {
		obsLife = lifetime.New()
		return observer.New(obsLife, "halt-test", func(v int) {
			got = append(got, v)
			if v == 3 {
				obsLife.Stop()
			}
		}, nil, nil)
	})

	From(FromRange(1, 1000)).Bind(sub).Start(ctx)

	assert.LessOrEqual(t, len(got), 4)
	assert.Equal(t, []int{1, 2, 3}, got[:3])
}

// Invariant 7: source | take(n) | subscriber observes at most n next
// values and exactly one complete, even when n is larger than the source.
func TestTakeSaturatesAtSourceLength(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 3)).Take(10)
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
}

func TestTakeZeroCompletesImmediately(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	p := From(FromRange(1, 5)).Take(0)
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	values, err := result.Wait()
	require.NoError(t, err)
	assert.Empty(t, values)
}

// Finally's hook runs exactly once on normal completion.
func TestFinallyRunsOnceOnComplete(t *testing.T) {
	ctx, life := newImmediateCtx()
	defer life.Stop()

	calls := 0
	p := From(FromRange(1, 3)).Finally(func() { calls++ })
	sub, result := Collector[int]()
	p.Bind(sub).Start(ctx)

	_, err := result.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
