package engine

import (
	"fmt"

	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/failure"
)

type EngineErrorCause string

const (
	ErrCauseSeedInvalid     EngineErrorCause = "seed url invalid"
	ErrCauseCriticalFailure EngineErrorCause = "critical failure detected"
	ErrCauseFetchExhausted  EngineErrorCause = "fetch retries exhausted"
)

// EngineError is the classified error of the Domain Crawl Engine.
// fetchWithRetry returns one with ErrCauseFetchExhausted when a page's fetch
// retries run out; the worker logs it as a fetch_failed edge case and skips
// the page, per §4.7.2.
type EngineError struct {
	Message   string
	Cause     EngineErrorCause
	Retryable bool
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error (%s): %s", e.Cause, e.Message)
}

func (e *EngineError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *EngineError) IsRetryable() bool {
	return e.Retryable
}

// TelemetryCause maps e.Cause onto the observation-only telemetry.ErrorCause
// table, for attaching to edge_case/critical_failure_detected events. Must
// never drive control flow.
func (e *EngineError) TelemetryCause() telemetry.ErrorCause {
	return mapCause(e.Cause)
}

// mapCause is TelemetryCause's underlying table lookup.
func mapCause(cause EngineErrorCause) telemetry.ErrorCause {
	switch cause {
	case ErrCauseSeedInvalid:
		return telemetry.CauseContentInvalid
	case ErrCauseCriticalFailure:
		return telemetry.CauseInvariantViolation
	case ErrCauseFetchExhausted:
		return telemetry.CauseNetworkFailure
	default:
		return telemetry.CauseUnknown
	}
}
