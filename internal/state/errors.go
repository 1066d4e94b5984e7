package state

import (
	"fmt"

	"github.com/rohmanhakim/spider/pkg/failure"
)

type StateErrorCause string

const (
	ErrCauseNotFound      StateErrorCause = "state not found"
	ErrCauseReadFailure   StateErrorCause = "read failed"
	ErrCauseWriteFailure  StateErrorCause = "write failed"
	ErrCauseDecodeFailure StateErrorCause = "decode failed"
	ErrCausePathError     StateErrorCause = "path error"
	ErrCauseHashFailure   StateErrorCause = "session key hash failed"
)

// StateError reports a Store operation failure. Op names the failing
// method ("load" or "save") per SPEC_FULL.md §4.9.
type StateError struct {
	Op        string
	Message   string
	Retryable bool
	Cause     StateErrorCause
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %s: %s", e.Op, e.Cause, e.Message)
}

func (e *StateError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
