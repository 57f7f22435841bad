package notion

import "time"

// RetryConfig defines retry behavior for transient Notion API failures.
// 4xx responses are never retried regardless of these settings.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one (default: 2)
	MaxRetries int

	// InitialBackoff is the wait before the first retry (default: 1s)
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries (default: 10s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to the backoff on each retry (default: 2)
	BackoffMultiplier float64
}

// Default retry constants
const (
	DefaultMaxRetries        = 2
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// NewDefaultRetryConfig returns the retry policy used by the client
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// Attempts returns the total number of attempts including the first
func (c RetryConfig) Attempts() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return c.MaxRetries + 1
}

// CalculateBackoff computes the wait before retry number attempt (1-based).
// The result is capped at MaxBackoff.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.InitialBackoff) * multiplier)
	if c.MaxBackoff > 0 && backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}
