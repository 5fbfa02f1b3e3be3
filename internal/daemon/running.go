package daemon

import "errors"

// IsRunning reports whether a hub serves dir. The PID lock is authoritative;
// a state file whose process is gone does not count.
func IsRunning(dir string) bool {
	if IsLocked(PIDPath(dir)) {
		return true
	}

	state, err := LoadState(dir)
	if err != nil {
		return false
	}
	return ProcessExists(state.PID)
}

// RunningState returns the state of the hub serving dir. A leftover state
// file yields ErrStaleState; no state at all yields ErrNotRunning.
func RunningState(dir string) (*State, error) {
	state, err := LoadState(dir)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrNotRunning
		}
		return nil, err
	}

	if !IsLocked(PIDPath(dir)) && !ProcessExists(state.PID) {
		return nil, ErrStaleState
	}
	return state, nil
}

// CleanupStaleFiles removes files left behind by a hub that crashed. It
// returns ErrAlreadyRunning when the hub is still alive.
func CleanupStaleFiles(dir string) error {
	if IsLocked(PIDPath(dir)) {
		return ErrAlreadyRunning
	}

	state, err := LoadState(dir)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		return err
	}

	if ProcessExists(state.PID) {
		return ErrAlreadyRunning
	}
	return CleanupStateDir(dir)
}
