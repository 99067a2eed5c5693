package clients

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first
	BackoffStep time.Duration // Linear backoff unit; attempt n waits n*BackoffStep
	Retryable   func(error) bool
}

// DefaultRetryConfig returns the retry configuration used for detail fetches:
// three attempts with 2s/4s waits between them.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BackoffStep: 2 * time.Second,
	}
}

// RetryResult contains the result of a retry operation
type RetryResult struct {
	Attempts      int
	LastError     error
	TotalDuration time.Duration
}

// Retrier runs operations with linear backoff. Only errors the Retryable
// classifier accepts are retried; everything else is terminal on first sight.
type Retrier struct {
	config *RetryConfig
}

// NewRetrier creates a new retrier with the given config
func NewRetrier(config *RetryConfig) *Retrier {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Retrier{config: config}
}

// Backoff returns the wait duration after the given 1-based attempt number.
func (r *Retrier) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * r.config.BackoffStep
}

// RetryableFunc is a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Do executes a function with retry logic
func (r *Retrier) Do(ctx context.Context, operation string, fn RetryableFunc) *RetryResult {
	result := &RetryResult{}
	startTime := time.Now()

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx)
		result.LastError = err

		if err == nil {
			result.TotalDuration = time.Since(startTime)
			return result
		}

		if r.config.Retryable != nil && !r.config.Retryable(err) {
			result.TotalDuration = time.Since(startTime)
			return result
		}

		if attempt >= r.config.MaxAttempts {
			result.LastError = fmt.Errorf("max attempts exceeded for %s: %w", operation, err)
			result.TotalDuration = time.Since(startTime)
			return result
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		case <-time.After(r.Backoff(attempt)):
			// Continue to next attempt
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}
