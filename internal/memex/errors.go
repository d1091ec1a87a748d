package memex

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNodeIDNotFound reports that the store accepted an add but emitted no
// parseable node id, a protocol violation by the collaborator.
var ErrNodeIDNotFound = errors.New("memex: no node id found in store output")

// InvocationError reports a store command that exited non-zero.
type InvocationError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("memex: %s failed: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }

// TimeoutError reports a store command that exceeded the configured bound.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("memex: %s timed out after %s", e.Command, e.Timeout)
}
