package lifetime

import "errors"

// ErrStopped is returned by MakeState when the target lifetime has
// already stopped.
var ErrStopped = errors.New("lifetime: cannot allocate state on a stopped lifetime")
