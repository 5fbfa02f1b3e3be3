package domain

import "time"

// SourceState represents where a source's follow process is in its lifecycle.
// A source moves forward only: starting, then running or failed, then exited.
type SourceState string

const (
	// SourceStateStarting indicates the follow process is being launched
	SourceStateStarting SourceState = "starting"
	// SourceStateRunning indicates the follow process is streaming output
	SourceStateRunning SourceState = "running"
	// SourceStateExited indicates the follow process terminated
	SourceStateExited SourceState = "exited"
	// SourceStateFailed indicates the follow process could not be launched
	SourceStateFailed SourceState = "failed"
)

// String returns the string representation of SourceState
func (s SourceState) String() string {
	return string(s)
}

// IsRunning returns true if the source is streaming
func (s SourceState) IsRunning() bool {
	return s == SourceStateRunning
}

// IsTerminal returns true if the source will emit nothing more
func (s SourceState) IsTerminal() bool {
	return s == SourceStateExited || s == SourceStateFailed
}

// SourceConfig defines the follow command of a single source
type SourceConfig struct {
	Name    string
	Cmd     string
	Env     map[string]string
	EnvFile string
}

// SourceInfo represents the runtime state of a source
type SourceInfo struct {
	Name      string            `json:"name"`
	State     SourceState       `json:"state"`
	PID       int               `json:"pid"`
	ExitCode  *int              `json:"exit_code,omitempty"`
	StartedAt time.Time         `json:"started_at,omitempty"`
	Lines     uint64            `json:"lines"`
	Cmd       string            `json:"cmd,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// UptimeSeconds returns the number of seconds the source has been streaming
func (s SourceInfo) UptimeSeconds() int64 {
	if s.StartedAt.IsZero() || !s.State.IsRunning() {
		return 0
	}
	return int64(time.Since(s.StartedAt).Seconds())
}
