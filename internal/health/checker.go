// Package health provides upfront health checks for the services a load test
// depends on.
//
// Purpose:
//
//	Probe the group service (and optionally the directory API) before any
//	group is created, so an unavailable dependency fails the run fast instead
//	of leaving a half-populated test group behind.
//
// Dependencies:
//   - net/http: HTTP client for health checks
//   - context: Timeout control
//
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single round of health checks.
const DefaultTimeout = 5 * time.Second

// Checker performs health checks on service dependencies.
type Checker struct {
	client  *http.Client
	timeout time.Duration
}

// NewChecker creates a new health checker. A zero timeout uses DefaultTimeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Service names a dependency and its health endpoint.
type Service struct {
	Name string
	URL  string // full health URL, e.g. http://host:8080/health
}

// ServiceHealth represents the health status of a service.
type ServiceHealth struct {
	Service  string        `json:"service"`
	Healthy  bool          `json:"healthy"`
	URL      string        `json:"url"`
	Latency  time.Duration `json:"latency"`
	Error    error         `json:"-"`
	ErrorMsg string        `json:"error,omitempty"`
}

// UnavailableError lists every unhealthy service.
type UnavailableError struct {
	Unhealthy []ServiceHealth
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString("required services are unavailable:")
	for _, h := range e.Unhealthy {
		fmt.Fprintf(&b, "\n  - %s (%s): %v", h.Service, h.URL, h.Error)
	}
	return b.String()
}

// CheckService performs a health check on a single service. Any 2xx is healthy.
func (c *Checker) CheckService(ctx context.Context, svc Service) ServiceHealth {
	result := ServiceHealth{Service: svc.Name, URL: svc.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		return result.fail(fmt.Errorf("failed to create request: %w", err))
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		return result.fail(fmt.Errorf("service unreachable: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result.fail(fmt.Errorf("service returned status %d", resp.StatusCode))
	}

	result.Healthy = true
	return result
}

// CheckRequired checks every service in order and returns all results. The
// error is an *UnavailableError when at least one service is unhealthy.
func (c *Checker) CheckRequired(ctx context.Context, services ...Service) ([]ServiceHealth, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make([]ServiceHealth, 0, len(services))
	var unhealthy []ServiceHealth

	for _, svc := range services {
		h := c.CheckService(ctx, svc)
		results = append(results, h)
		if !h.Healthy {
			unhealthy = append(unhealthy, h)
		}
	}

	if len(unhealthy) > 0 {
		return results, &UnavailableError{Unhealthy: unhealthy}
	}
	return results, nil
}

func (h ServiceHealth) fail(err error) ServiceHealth {
	h.Healthy = false
	h.Error = err
	h.ErrorMsg = err.Error()
	return h
}
