package workflow

import (
	"errors"
	"time"

	"content_repurposer/generator"
)

const (
	retryBaseDelay = 120 * time.Second
	maxRetryShift  = 10
)

// RetryDelay is the back-off an external job queue should wait before re-running a failed run:
// 120s doubled per previous attempt.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxRetryShift {
		attempt = maxRetryShift
	}
	return retryBaseDelay << attempt
}

// Retryable reports whether a failed run is worth re-queuing: only upstream failures caused by a
// transient or rate-limited completion error.
func Retryable(err error) bool {
	if err == nil || !errors.Is(err, generator.ErrUpstream) {
		return false
	}
	var ce *generator.CompletionError
	return errors.As(err, &ce) && ce.Retryable()
}
