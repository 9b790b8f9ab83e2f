package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/hirelink/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates a missing, expired, or rejected session
	AuthError = 3

	// NetworkError indicates the backend or socket could not be reached
	NetworkError = 4

	// UpgradeRequired indicates the current plan does not include a feature
	UpgradeRequired = 5

	// ConfigError indicates invalid configuration
	ConfigError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode maps coded errors by category and falls back to the
// error message for everything else.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code := errors.CodeOf(err); code != "" {
		if c, ok := fromCode(code); ok {
			return c
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "not logged in") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "invalid usage") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

func fromCode(code errors.ErrorCode) (int, bool) {
	switch code {
	case errors.ErrCodeSessionMissing, errors.ErrCodeAPIUnauthorized:
		return AuthError, true
	case errors.ErrCodeAPINetwork, errors.ErrCodeChannelDial:
		return NetworkError, true
	case errors.ErrCodePlanUpgradeNeeded:
		return UpgradeRequired, true
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigParse:
		return ConfigError, true
	case errors.ErrCodePlanUnknownFeature:
		return UsageError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case UpgradeRequired:
		return "Plan upgrade required"
	case ConfigError:
		return "Configuration error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
