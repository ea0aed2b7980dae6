package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"coderag/internal/domain"
)

// Policy bounds the retries and the per-attempt timeout of a remote call.
type Policy struct {
	MaxRetries uint64
	Base       time.Duration // first Fibonacci backoff step
	Timeout    time.Duration // per attempt; 0 disables
}

// DefaultPolicy retries three times starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, Base: 500 * time.Millisecond, Timeout: 60 * time.Second}
}

// Do runs fn with Fibonacci backoff. Each attempt gets its own timeout.
// Only errors accepted by ShouldRetry are retried; the last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	base := p.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	b := goretry.WithMaxRetries(p.MaxRetries, goretry.NewFibonacci(base))

	return goretry.Do(ctx, b, func(ctx context.Context) error {
		callCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		// The caller gave up; an attempt timeout with a live parent is retryable.
		if ctx.Err() != nil {
			return err
		}
		if ShouldRetry(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// ShouldRetry reports whether a failed service call may succeed on another attempt.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var se *domain.ServiceError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 0:
			return true
		case se.StatusCode == http.StatusTooManyRequests, se.StatusCode == http.StatusRequestTimeout:
			return true
		case se.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	return true
}
