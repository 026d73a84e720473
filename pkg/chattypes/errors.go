// Package chattypes defines the error taxonomy shared across the client core.
// Every error here is recoverable: validation failures are advisory messages
// for the user, transport failures preserve the draft, and persistence
// failures degrade rather than crash.
package chattypes

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a submission is attempted with blank text
// and no attachment. The remote service is never called in that case.
var ErrEmptyInput = errors.New("nothing to send: enter a message or attach a file")

// ErrSubmissionInFlight is returned when a submission is attempted for a
// thread that already has one outstanding. At most one outbound submission
// per thread may be in flight at a time.
var ErrSubmissionInFlight = errors.New("a submission for this thread is already in flight")

// ValidationError reports a locally rejected input, such as an attachment
// whose declared content type is not allow-listed. It is surfaced to the
// user and never propagated as a crash.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// TransportError reports a failed round trip to the remote service: network
// errors, non-2xx statuses, or an undecodable response body.
type TransportError struct {
	Op         string // "generate" or "fetch_thread"
	StatusCode int    // 0 when the request never produced a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
