package rxerr

import (
	"fmt"
	"runtime"
)

// PanicError wraps a recovered panic value together with the goroutine
// stack trace captured at the point of the panic. A panic inside an
// operator's next callback is converted to a PanicError and routed
// through the observer's error channel (UserCallbackThrew); a panic
// inside error or complete is a discipline violation and is re-raised
// (TerminalCallbackThrew) rather than converted.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

func (e *PanicError) Unwrap() error { return nil }

// NewPanicError captures v (the value passed to panic) and the current
// goroutine's stack trace.
func NewPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}
