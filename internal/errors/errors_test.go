// Package errors provides tests for error handling.
package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIError(t *testing.T) {
	err := NewServiceUnavailableError("groups-service", "http://test:8080")
	require.NotNil(t, err)

	assert.Equal(t, ErrCodeServiceUnavailable, err.Code)
	assert.Equal(t, 3, err.ExitCode)
	assert.Contains(t, err.Error(), "http://test:8080")
	assert.Contains(t, err.Error(), "Suggestion:")
}

func TestAuthenticationError(t *testing.T) {
	cause := stderrors.New("invalid_client")
	err := NewAuthenticationError(cause)

	assert.Equal(t, ErrCodeAuthenticationFailed, err.Code)
	assert.Equal(t, 1, err.ExitCode)
	assert.ErrorIs(t, err, cause)
}

func TestRunErrorExitCodes(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  *CLIError
		code ErrorCode
		exit int
	}{
		{"latency", NewLatencyBudgetError(cause), ErrCodeLatencyBudget, 4},
		{"membership", NewMembershipError(cause), ErrCodeMembershipFailed, 5},
		{"cleanup", NewCleanupError("grp-1", cause), ErrCodeCleanupFailed, 6},
		{"usage", NewUsageError("bad flag"), ErrCodeUsage, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.exit, tt.err.ExitCode)
		})
	}
}

func TestCleanupErrorSuggestsManualDelete(t *testing.T) {
	err := NewCleanupError("grp-42", stderrors.New("status 500"))
	assert.Contains(t, err.Suggestion, "--group-id grp-42")
}
