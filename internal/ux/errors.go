package ux

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/hirelink/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to uncoded errors. Coded errors already
// carry their own suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if errors.CodeOf(err) != "" {
		return err
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		return NewErrorWithSuggestion(err,
			"Check HIRELINK_API_URL and that the backend is running")
	case strings.Contains(errMsg, "permission denied"):
		return NewErrorWithSuggestion(err,
			"Check permissions on ~/.hirelink and the session file")
	case strings.Contains(errMsg, "unknown feature"):
		return NewErrorWithSuggestion(err,
			"Run 'hirelink plan show' to list feature keys")
	case strings.Contains(errMsg, "unknown application status"):
		return NewErrorWithSuggestion(err,
			"Use one of: applied, under_review, shortlisted, interview, offered, hired, rejected")
	}
	return err
}
