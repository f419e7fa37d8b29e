// Package client provides retry logic with exponential backoff for API clients.
//
// Purpose:
//
//	Handle transient failures (network timeouts, 5xx errors, 429) on idempotent
//	reads with an exponential backoff strategy: 1s, 2s, 4s by default.
//	Membership writes are never retried here; a retried bulk call would hide
//	the latency the load test is measuring.
//
// Dependencies:
//   - context: Timeout and cancellation
//   - time: Exponential backoff delays
//
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts  int           // Max attempts including the first (default: 3)
	InitialDelay time.Duration // Delay before the first retry (default: 1s)
	MaxDelay     time.Duration // Maximum delay between retries (default: 4s)
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     4 * time.Second,
	}
}

// NoRetry performs exactly one attempt.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// DoWithRetry executes an HTTP request with retry logic. The request must be
// replayable: no body, or GetBody set. A non-retriable response is returned
// as-is for the caller to inspect; the final retriable failure is returned as
// an error wrapping *StatusError or the transport error.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, config RetryConfig) (*http.Response, error) {
	if config.MaxAttempts <= 0 {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		resp, err := client.Do(req)
		if err == nil && isSuccess(resp.StatusCode) {
			return resp, nil
		}

		if err != nil && !isRetriableError(err) {
			return nil, err
		}

		if resp != nil && !isRetriableStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			lastErr = NewStatusError(req.Method, req.URL.Redacted(), resp)
			resp.Body.Close()
		}

		// Don't wait after last attempt
		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay = min(delay*2, config.MaxDelay)
			}
		}
	}

	if config.MaxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retry attempts (%d) exceeded: %w", config.MaxAttempts, lastErr)
}

func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// 5xx errors and 429 (Too Many Requests) are retriable.
func isRetriableStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
