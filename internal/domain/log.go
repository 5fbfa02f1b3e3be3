package domain

import (
	"fmt"
	"time"
)

// Stream represents the origin of a log event
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
	// StreamLifecycle marks the single terminal event of a source
	StreamLifecycle Stream = "lifecycle"
)

const (
	exitedText      = "child process exited with code %d"
	startFailedText = "child process failed to start: %s"
	readErrorText   = "output read error: %s"
)

// String returns the string representation of Stream
func (s Stream) String() string {
	return string(s)
}

// LogEvent is one line of output, or the terminal lifecycle marker, of a source
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Stream    Stream    `json:"stream"`
	Text      string    `json:"text"`
}

// IsLifecycle reports whether the event ends its source's output
func (e LogEvent) IsLifecycle() bool {
	return e.Stream == StreamLifecycle
}

// NewLineEvent builds a stdout or stderr event
func NewLineEvent(source string, stream Stream, text string) LogEvent {
	return LogEvent{
		Timestamp: time.Now(),
		Source:    source,
		Stream:    stream,
		Text:      text,
	}
}

// NewExitEvent builds the lifecycle event of a process that terminated.
// Processes killed by a signal report the negated signal number.
func NewExitEvent(source string, exitCode int) LogEvent {
	return LogEvent{
		Timestamp: time.Now(),
		Source:    source,
		Stream:    StreamLifecycle,
		Text:      fmt.Sprintf(exitedText, exitCode),
	}
}

// NewStartFailedEvent builds the lifecycle event of a process that never ran
func NewStartFailedEvent(source string, err error) LogEvent {
	return LogEvent{
		Timestamp: time.Now(),
		Source:    source,
		Stream:    StreamLifecycle,
		Text:      fmt.Sprintf(startFailedText, err),
	}
}

// NewReadErrorEvent reports a failure reading one of the source's pipes
func NewReadErrorEvent(source string, err error) LogEvent {
	return LogEvent{
		Timestamp: time.Now(),
		Source:    source,
		Stream:    StreamStderr,
		Text:      fmt.Sprintf(readErrorText, err),
	}
}

// HubStats contains counters of the broadcast hub
type HubStats struct {
	Viewers         int    `json:"viewers"`
	EventsPublished uint64 `json:"events_published"`
	ViewersDropped  uint64 `json:"viewers_dropped"`
}
