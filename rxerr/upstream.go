package rxerr

import (
	"errors"
	"fmt"
)

// Source identifies the pipeline stage that raised an UpstreamError, for
// attribution in logs and tests.
type Source struct {
	// Stage names the operator or producer that raised the error, e.g.
	// "filter", "map", "merge-inner".
	Stage string
}

// UpstreamError wraps an error together with the Source that produced it,
// so callers can attribute a failure to the stage that raised it. The
// observers wrap the error they build from a panicking Next callback this
// way; an error a producer passes to Error directly travels down the
// chain unwrapped.
type UpstreamError struct {
	Source Source
	Err    error
}

// Wrap attaches source to err. Wrap(source, nil) returns nil.
func Wrap(source Source, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Source: source, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err (or any error in its chain) is an
// *UpstreamError.
func IsUpstream(err error) bool {
	if err == nil {
		return false
	}
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// SourceOf extracts the Source from the first *UpstreamError in err's
// chain. Returns false if none is found.
func SourceOf(err error) (Source, bool) {
	if err == nil {
		return Source{}, false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Source, true
	}
	return Source{}, false
}

// CauseOf unwraps the first *UpstreamError in err's chain and returns its
// underlying cause. If err is not an UpstreamError, err is returned as-is.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// All recursively collects every *UpstreamError from err's chain,
// including errors joined via errors.Join. Returns nil if none are found.
func All(err error) []*UpstreamError {
	if err == nil {
		return nil
	}
	var out []*UpstreamError
	collect(err, &out)
	return out
}

func collect(err error, out *[]*UpstreamError) {
	switch e := err.(type) {
	case *UpstreamError:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collect(sub, out)
		}
	case interface{ Unwrap() error }:
		collect(e.Unwrap(), out)
	}
}
