package executive

import (
	"errors"
	"fmt"
)

// Contract-violation sentinels: caller bugs,
// surfaced immediately, never recovered by the core.
var (
	ErrCausalityViolation = errors.New("executive: event scheduled before current time")
	ErrIllegalSuspension  = errors.New("executive: suspend/join called outside a detachable event")
	ErrNotDetachable      = errors.New("executive: operation requires the currently-running detachable context")
	ErrIllegalState       = errors.New("executive: operation not permitted in current state")
)

// Aborted is delivered to a detachable's suspend/join calls once
// Stop() has aborted it.
var Aborted = errors.New("executive: detachable aborted by Stop")

// AbortedEventError wraps the event whose callback caused the
// executive to abort (an error escaping a Synchronous, Asynchronous,
// or Detachable receiver outside the documented error kinds).
type AbortedEventError struct {
	Event *Event
	Cause error
}

func (e *AbortedEventError) Error() string {
	return fmt.Sprintf("executive: aborted on event %s: %v", e.Event.Key, e.Cause)
}

func (e *AbortedEventError) Unwrap() error { return e.Cause }
