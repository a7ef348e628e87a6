package observer

// Policy selects how an observer's error or complete channel reacts to a
// terminal signal it receives. The same type is taken by WithErrorPolicy
// and WithCompletePolicy so every lifter stage configures both the same way.
type Policy int

const (
	// Fail treats receiving the signal as a fatal abort: it panics rather
	// than terminating gracefully. Used sparingly, for observers that
	// should never legitimately see the signal.
	Fail Policy = iota
	// Pass forwards the signal to the delegatee unchanged. This is the
	// default for chained (lifter-produced) observers.
	Pass
	// Ignore drops the signal entirely without terminating this
	// observer's lifetime.
	Ignore
	// Skip drops the signal but still terminates this observer's
	// lifetime, silently.
	Skip
)
