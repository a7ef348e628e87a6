package main

import (
	"fmt"
	"time"

	"github.com/go-reactive/rx/clock"
	"github.com/go-reactive/rx/lifetime"
	"github.com/go-reactive/rx/rx"
	"github.com/go-reactive/rx/strand"
)

func main() {
	life := lifetime.New()
	defer life.Stop()

	clk := clock.System()
	ctx := rx.NewContext(life, strand.NewImmediateFactory(clk), clk, nil)

	pipeline := rx.From(rx.FromRange(1, 20)).
		Filter(func(v int) bool { return v%2 == 0 }).
		Take(5)

	sub, result := rx.Collector[int]()
	start := time.Now()
	pipeline.Bind(sub).Start(ctx)
	life.Join()

	values, err := result.Wait()
	fmt.Println("values:", values, "err:", err, "elapsed:", time.Since(start))
}
