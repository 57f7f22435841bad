package notion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// Operation is one outbound call. The context carries the per-attempt timeout.
type Operation func(ctx context.Context) error

// Fetcher wraps every outbound call with pacing, a per-attempt timeout and
// bounded retry. One Fetcher is shared by every caller of a Client so pacing
// is global to the generation run.
type Fetcher struct {
	limiter  *rate.Limiter
	throttle *Throttle
	retry    RetryConfig
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewFetcher creates a fetcher.
// requestsPerSecond <= 0 disables the sustained rate limit.
func NewFetcher(requestsPerSecond float64, throttleInterval, timeout time.Duration, retry RetryConfig, logger arbor.ILogger) *Fetcher {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Fetcher{
		limiter:  rate.NewLimiter(limit, 1),
		throttle: NewThrottle(throttleInterval),
		retry:    retry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Call runs op, retrying transient failures. A 4xx APIError is returned
// immediately. Once retries are exhausted the last error is returned wrapped
// with ErrTransient.
func (f *Fetcher) Call(ctx context.Context, name string, op Operation) error {
	attempts := f.retry.Attempts()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := f.retry.CalculateBackoff(attempt)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		if err := f.throttle.Wait(ctx); err != nil {
			return err
		}

		err := f.attempt(ctx, op)
		f.throttle.Done()

		if err == nil {
			return nil
		}

		if IsClientError(err) {
			f.logger.Debug().
				Str("operation", name).
				Int("status", StatusCode(err)).
				Err(err).
				Msg("Notion request rejected, not retrying")
			return err
		}

		// Caller gave up; the per-attempt deadline is a different context
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		lastErr = err
		if attempt < attempts-1 {
			f.logger.Warn().
				Str("operation", name).
				Int("attempt", attempt+1).
				Int("max_attempts", attempts).
				Err(err).
				Msg("Notion request failed, retrying")
		}
	}

	f.logger.Error().
		Str("operation", name).
		Int("attempts", attempts).
		Err(lastErr).
		Msg("Notion request failed after retries")

	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrTransient, name, attempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, op Operation) error {
	if f.timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("request timed out after %v: %w", f.timeout, err)
	}
	return err
}

// Throttle exposes the shared pacing watermark
func (f *Fetcher) Throttle() *Throttle {
	return f.throttle
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
