package daemon

import "errors"

var (
	// ErrStateNotFound is returned when no state file exists
	ErrStateNotFound = errors.New("state file not found")
	// ErrAlreadyRunning is returned when a hub already serves this directory
	ErrAlreadyRunning = errors.New("tailhub is already running")
	// ErrNotRunning is returned when no hub serves this directory
	ErrNotRunning = errors.New("tailhub is not running")
	// ErrStaleState is returned when a state file outlived its hub
	ErrStaleState = errors.New("state file belongs to a hub that is no longer running")
	// ErrPIDFileLocked is returned when the PID file is locked by another process
	ErrPIDFileLocked = errors.New("PID file is locked by another process")
)
