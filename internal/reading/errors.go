package reading

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvocation marks a probe whose external source could not be
	// queried: missing command, non-zero exit, timeout or cancellation.
	ErrInvocation = errors.New("invocation failed")
	// ErrShape marks output that was produced but could not be parsed.
	ErrShape = errors.New("unexpected output")
	// ErrCoreCountChanged marks a per-core sample whose length differs from
	// the core count fixed at the first successful sample.
	ErrCoreCountChanged = errors.New("per-core reading count changed")
)

// ProbeError reports a failed probe. Kind is one of the sentinel errors in
// this package and can be matched with errors.Is.
type ProbeError struct {
	Source string
	Kind   error
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Invocation wraps err as an invocation failure of source.
func Invocation(source string, err error) error {
	return &ProbeError{Source: source, Kind: ErrInvocation, Err: err}
}

// Shape reports malformed output from source.
func Shape(source, format string, args ...any) error {
	return &ProbeError{Source: source, Kind: ErrShape, Err: fmt.Errorf(format, args...)}
}

// Reason renders err as a short human-readable reason for an unavailable
// reading.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	var probeErr *ProbeError
	if errors.As(err, &probeErr) && probeErr.Err != nil {
		return probeErr.Err.Error()
	}
	return err.Error()
}
