package engine

import (
	"testing"

	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/rohmanhakim/spider/pkg/failure"
	"github.com/stretchr/testify/assert"
)

func TestEngineErrorTelemetryCause(t *testing.T) {
	cases := []struct {
		cause EngineErrorCause
		want  telemetry.ErrorCause
	}{
		{ErrCauseSeedInvalid, telemetry.CauseContentInvalid},
		{ErrCauseCriticalFailure, telemetry.CauseInvariantViolation},
		{ErrCauseFetchExhausted, telemetry.CauseNetworkFailure},
		{EngineErrorCause("unmapped"), telemetry.CauseUnknown},
	}
	for _, c := range cases {
		err := &EngineError{Cause: c.cause}
		assert.Equal(t, c.want, err.TelemetryCause())
	}
}

func TestEngineErrorSeverity(t *testing.T) {
	retryable := &EngineError{Retryable: true}
	assert.Equal(t, failure.SeverityRecoverable, retryable.Severity())

	fatal := &EngineError{Retryable: false}
	assert.Equal(t, failure.SeverityFatal, fatal.Severity())
}
