package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/spider/pkg/failure"
	"github.com/rohmanhakim/spider/pkg/timeutil"
)

// Retry executes fn up to RetryParam.MaxAttempts times, applying exponential
// backoff with jitter between attempts. An error triggers another attempt
// when its IsRetryable() reports true or, if it has no IsRetryable method,
// when its Severity is recoverable; everything else returns immediately.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](retryParam RetryParam, fn func() (T, failure.ClassifiedError)) Result[T] {
	var lastErr failure.ClassifiedError
	var zero T

	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: false,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return NewSuccessResult(result, attempt)
		}

		lastErr = err

		if !isErrorRetryable(err) {
			return Result[T]{value: zero, err: err, attempts: attempt}
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(attempt, retryParam.Jitter, *rng, retryParam.BackoffParam)
		time.Sleep(delay)
	}

	return Result[T]{
		value: zero,
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: false,
		},
		attempts: retryParam.MaxAttempts,
	}
}

// retryableError is implemented by any ClassifiedError that wants to opt out
// of the default "recoverable errors are retryable" behavior.
type retryableError interface {
	IsRetryable() bool
}

func isErrorRetryable(err failure.ClassifiedError) bool {
	if r, ok := err.(retryableError); ok {
		return r.IsRetryable()
	}
	return err.Severity() == failure.SeverityRecoverable
}
