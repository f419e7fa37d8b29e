// Package errors provides structured error types and recovery suggestions.
//
// Purpose:
//
//	Define consistent error types across all load test commands with recovery
//	suggestions and exit codes. Lets scripts and CI pipelines tell an
//	unreachable service apart from a blown latency budget or rejected members.
//
package errors

import (
	"fmt"
)

// ErrorCode represents a standardized error code.
type ErrorCode string

const (
	// ErrCodeServiceUnavailable indicates a required service is unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeAuthenticationFailed indicates the M2M token could not be obtained.
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	// ErrCodeValidationFailed indicates input validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeOperationFailed indicates a general operation failure.
	ErrCodeOperationFailed ErrorCode = "OPERATION_FAILED"
	// ErrCodeUsage indicates incorrect command usage.
	ErrCodeUsage ErrorCode = "USAGE_ERROR"
	// ErrCodeLatencyBudget indicates a chunk exceeded its latency budget.
	ErrCodeLatencyBudget ErrorCode = "LATENCY_BUDGET_EXCEEDED"
	// ErrCodeMembershipFailed indicates the service rejected individual members.
	ErrCodeMembershipFailed ErrorCode = "MEMBERSHIP_FAILED"
	// ErrCodeCleanupFailed indicates the test group could not be deleted.
	ErrCodeCleanupFailed ErrorCode = "CLEANUP_FAILED"
)

// Exit codes for scriptability.
const (
	ExitGeneral            = 1
	ExitUsage              = 2
	ExitServiceUnavailable = 3
	ExitLatencyBudget      = 4
	ExitMembershipFailed   = 5
	ExitCleanupFailed      = 6
)

// CLIError represents a structured CLI error with recovery suggestions.
type CLIError struct {
	Code       ErrorCode
	Message    string
	Suggestion string
	Details    string
	ExitCode   int
	Err        error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewServiceUnavailableError creates an error for service unavailability.
func NewServiceUnavailableError(service, endpoint string) *CLIError {
	return &CLIError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("Service '%s' is unavailable", service),
		Details:    fmt.Sprintf("Endpoint: %s", endpoint),
		Suggestion: fmt.Sprintf("Verify '%s' is running and accessible at %s. Check network connectivity and service health.", service, endpoint),
		ExitCode:   ExitServiceUnavailable,
	}
}

// NewAuthenticationError creates an error for authentication failures.
func NewAuthenticationError(err error) *CLIError {
	return &CLIError{
		Code:       ErrCodeAuthenticationFailed,
		Message:    "Authentication failed",
		Details:    err.Error(),
		Suggestion: "Verify the M2M client id, client secret, audience and token URL. Check system time if the token is reported as expired.",
		ExitCode:   ExitGeneral,
		Err:        err,
	}
}

// NewValidationError creates an error for validation failures.
func NewValidationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   ExitUsage,
	}
}

// NewOperationError creates an error for operation failures.
func NewOperationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeOperationFailed,
		Message:    "Operation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   ExitGeneral,
	}
}

// NewUsageError creates an error for incorrect usage.
func NewUsageError(message string) *CLIError {
	return &CLIError{
		Code:       ErrCodeUsage,
		Message:    "Incorrect usage",
		Details:    message,
		Suggestion: "Run with --help for usage information.",
		ExitCode:   ExitUsage,
	}
}

// NewLatencyBudgetError creates an error for a chunk that ran over budget.
func NewLatencyBudgetError(err error) *CLIError {
	return &CLIError{
		Code:       ErrCodeLatencyBudget,
		Message:    "Latency budget exceeded",
		Details:    err.Error(),
		Suggestion: "Inspect the chunk timings in the report. Lower --chunk-size to locate the threshold, or raise --chunk-budget if the budget is wrong.",
		ExitCode:   ExitLatencyBudget,
		Err:        err,
	}
}

// NewMembershipError creates an error for members rejected by the service.
func NewMembershipError(err error) *CLIError {
	return &CLIError{
		Code:       ErrCodeMembershipFailed,
		Message:    "Members rejected",
		Details:    err.Error(),
		Suggestion: "Check that the member ids exist in the directory and that the group's oldId was accepted.",
		ExitCode:   ExitMembershipFailed,
		Err:        err,
	}
}

// NewCleanupError creates an error for a test group that could not be deleted.
func NewCleanupError(groupID string, err error) *CLIError {
	return &CLIError{
		Code:       ErrCodeCleanupFailed,
		Message:    fmt.Sprintf("Test group '%s' was not deleted", groupID),
		Details:    err.Error(),
		Suggestion: fmt.Sprintf("Remove it manually with: groups-loadtest delete-group --group-id %s", groupID),
		ExitCode:   ExitCleanupFailed,
		Err:        err,
	}
}
