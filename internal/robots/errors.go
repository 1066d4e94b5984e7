package robots

import (
	"fmt"

	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCauseInvalidRobotsUrl     RobotsErrorCause = "invalid robots.txt URL"
	ErrCausePreFetchFailure      RobotsErrorCause = "failed before making fetch"
	ErrCauseHttpFetchFailure     RobotsErrorCause = "failed to fetch"
	ErrCauseHttpTooManyRedirects RobotsErrorCause = "too many redirects"
	ErrCauseParseError           RobotsErrorCause = "failed to parse robots.txt"
)

// RobotsError reports a failure fetching or parsing robots.txt. Per C5's
// contract, network failure and non-2xx responses are NOT modeled as
// RobotsError — they resolve to empty (allow-all) rules instead. RobotsError
// is reserved for failures that cannot be folded into "no rules exist".
type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
}

func (e *RobotsError) Error() string {
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RobotsError) IsRetryable() bool {
	return e.Retryable
}

// mapErrorToCause maps RobotsError-local semantics to the canonical,
// observation-only telemetry.ErrorCause table. This mapping must never
// drive control flow.
func mapErrorToCause(err *RobotsError) telemetry.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidRobotsUrl:
		return telemetry.CauseInvariantViolation
	case ErrCausePreFetchFailure:
		return telemetry.CauseUnknown
	case ErrCauseHttpFetchFailure, ErrCauseHttpTooManyRedirects:
		return telemetry.CauseNetworkFailure
	case ErrCauseParseError:
		return telemetry.CauseContentInvalid
	default:
		return telemetry.CauseUnknown
	}
}
