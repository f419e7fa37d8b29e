package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/otherjamesbrown/ai-aas/services/groups-loadtest/internal/logging"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 1024

// StatusError reports an unexpected HTTP status from a service.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// NewStatusError builds a StatusError, reading at most 1 KiB of the body.
// Credentials echoed in the body are masked before it is kept.
func NewStatusError(method, url string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       logging.RedactString(strings.TrimSpace(string(body))),
	}
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d, body: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
