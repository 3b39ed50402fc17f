package errors

import (
	"context"
	"fmt"
	"time"

	"stoker/internal/logging"
)

// RetryConfig configures retry behavior for run-fatal pipeline failures.
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first (default: 3)
	BaseDelay   time.Duration // Delay after the first failed attempt (default: 5s)
	MaxDelay    time.Duration // Cap on the backoff delay (default: 20s)
}

// DefaultRetryConfig returns the standard 3-attempt 5s/10s/20s schedule.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		MaxDelay:    20 * time.Second,
	}
}

// Backoff returns the delay that follows the given zero-based failed attempt.
// The schedule doubles from BaseDelay: 5s, 10s, 20s with the defaults.
func Backoff(config RetryConfig, attempt int) time.Duration {
	delay := config.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// Retry executes fn up to config.MaxAttempts times with exponential backoff
// between attempts. Every error is retried: callers only reach this layer
// with run-fatal failures, and each attempt re-runs the operation fully from
// scratch. The last error is returned once attempts are exhausted.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc, logger logging.Logger) error {
	logger = logging.OrNop(logger)
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("Retry succeeded on attempt %d/%d", attempt+1, config.MaxAttempts)
			}
			return nil
		}

		lastErr = err
		logger.Warn("Attempt %d/%d failed: %v", attempt+1, config.MaxAttempts, err)

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := Backoff(config, attempt)
		logger.Debug("Waiting %v before next attempt", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", config.MaxAttempts, lastErr)
}

// RetryWithResult executes a function that returns a result with the same
// retry contract as Retry.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error), logger logging.Logger) (T, error) {
	var result T
	err := Retry(ctx, config, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	}, logger)
	return result, err
}
