package domain

import "errors"

// Domain errors
var (
	ErrSourceNotFound       = errors.New("source not found")
	ErrSourceAlreadyStarted = errors.New("source already started")
	ErrSourceNotRunning     = errors.New("source not running")
	ErrHubClosed            = errors.New("hub closed")
	ErrInvalidPattern       = errors.New("invalid filter pattern")
	ErrShutdownInProgress   = errors.New("shutdown in progress")
	ErrConfigNotFound       = errors.New("config file not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// Error codes for API responses
const (
	ErrCodeSourceNotFound       = "SOURCE_NOT_FOUND"
	ErrCodeSourceAlreadyStarted = "SOURCE_ALREADY_STARTED"
	ErrCodeSourceNotRunning     = "SOURCE_NOT_RUNNING"
	ErrCodeHubClosed            = "HUB_CLOSED"
	ErrCodeInvalidPattern       = "INVALID_PATTERN"
	ErrCodeShutdownInProgress   = "SHUTDOWN_IN_PROGRESS"

	// Transport-only codes with no sentinel error
	ErrCodeStreamingNotSupported = "STREAMING_NOT_SUPPORTED"
	ErrCodeUpgradeFailed         = "UPGRADE_FAILED"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return ErrCodeSourceNotFound
	case errors.Is(err, ErrSourceAlreadyStarted):
		return ErrCodeSourceAlreadyStarted
	case errors.Is(err, ErrSourceNotRunning):
		return ErrCodeSourceNotRunning
	case errors.Is(err, ErrHubClosed):
		return ErrCodeHubClosed
	case errors.Is(err, ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, ErrShutdownInProgress):
		return ErrCodeShutdownInProgress
	default:
		return "INTERNAL_ERROR"
	}
}
