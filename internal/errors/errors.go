package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionMissing     ErrorCode = "SESSION-001"
	ErrCodeSessionIncomplete  ErrorCode = "SESSION-002"
	ErrCodeSessionWriteFailed ErrorCode = "SESSION-003"
	ErrCodeSessionSealFailed  ErrorCode = "SESSION-004"

	// API errors (API-001 to API-099)
	ErrCodeAPIRequestFailed ErrorCode = "API-001"
	ErrCodeAPIUnauthorized  ErrorCode = "API-002"
	ErrCodeAPINetwork       ErrorCode = "API-003"
	ErrCodeAPIDecode        ErrorCode = "API-004"

	// Real-time channel errors (CHANNEL-001 to CHANNEL-099)
	ErrCodeChannelDial   ErrorCode = "CHANNEL-001"
	ErrCodeChannelClosed ErrorCode = "CHANNEL-002"
	ErrCodeChannelFrame  ErrorCode = "CHANNEL-003"

	// Plan errors (PLAN-001 to PLAN-099)
	ErrCodePlanMatrixInvalid  ErrorCode = "PLAN-001"
	ErrCodePlanUnknownFeature ErrorCode = "PLAN-002"
	ErrCodePlanUpgradeNeeded  ErrorCode = "PLAN-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigParse   ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
)

// HirelinkError represents an error with a code, suggestions, and a documentation link
type HirelinkError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *HirelinkError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *HirelinkError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a HirelinkError with the same code
func (e *HirelinkError) Is(target error) bool {
	t, ok := target.(*HirelinkError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new HirelinkError
func New(code ErrorCode, message string) *HirelinkError {
	return &HirelinkError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new HirelinkError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *HirelinkError {
	return &HirelinkError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *HirelinkError) WithSuggestion(suggestion string) *HirelinkError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *HirelinkError) WithSuggestions(suggestions ...string) *HirelinkError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *HirelinkError) WithDocs(url string) *HirelinkError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first HirelinkError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var he *HirelinkError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// Common error constructors for frequently used errors

// NewNotLoggedInError is returned by commands that need a session when none is stored
func NewNotLoggedInError() *HirelinkError {
	return New(ErrCodeSessionMissing, "not logged in").
		WithSuggestion("Run 'hirelink auth login' to authenticate").
		WithSuggestion("Check HIRELINK_SESSION_PATH if you keep sessions in a custom location")
}

// NewIncompleteSessionError is returned when a caller tries to persist half a session
func NewIncompleteSessionError(missing string) *HirelinkError {
	return New(ErrCodeSessionIncomplete, fmt.Sprintf("session is missing %s", missing)).
		WithSuggestion("Save a session only after a successful login response")
}

// NewAPIError wraps a failed API result message
func NewAPIError(status int, message string) *HirelinkError {
	code := ErrCodeAPIRequestFailed
	switch {
	case status == 0:
		code = ErrCodeAPINetwork
	case status == 401:
		code = ErrCodeAPIUnauthorized
	}

	e := New(code, message)
	switch code {
	case ErrCodeAPINetwork:
		e.WithSuggestion("Check HIRELINK_API_URL and your network connection")
	case ErrCodeAPIUnauthorized:
		e.WithSuggestion("Your session may have expired, run 'hirelink auth login' again")
	}
	return e
}

// NewUpgradeRequiredError creates an error for a feature the current plan does not include
func NewUpgradeRequiredError(feature, plan string) *HirelinkError {
	return New(ErrCodePlanUpgradeNeeded, fmt.Sprintf("%s is not available on the %s plan", feature, plan)).
		WithSuggestion("Run 'hirelink plan show' to compare plans").
		WithSuggestion("Upgrade your subscription to unlock this feature")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *HirelinkError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'hirelink config view' to inspect the effective configuration").
		WithSuggestion("Check HIRELINK_* environment variables")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *HirelinkError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}
