// Package constants provides shared configuration values used across tailhub.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "tailhub.yaml"

	// DefaultAPIHost is the default host for the hub listener
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIPort is the well-known port viewers connect to
	DefaultAPIPort = 5555

	// DefaultAPIAddress is the default hub address for client connections
	DefaultAPIAddress = "http://127.0.0.1:5555"

	// SourcePlaceholder is replaced by the source name in the follow template
	SourcePlaceholder = "{source}"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for REST requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// WSWriteTimeout bounds a single websocket frame write
	WSWriteTimeout = 10 * time.Second

	// WSPingInterval is how often the hub pings an idle viewer
	WSPingInterval = 30 * time.Second

	// WSPongWait is how long a viewer may stay silent before it is considered gone.
	// Must be greater than WSPingInterval.
	WSPongWait = 60 * time.Second
)

// Client store
const (
	// MaxLogs is the retention cap of every client bucket
	MaxLogs = 200

	// AllSourcesKey is the reserved aggregate bucket key
	AllSourcesKey = "All"
)

// Wire format
const (
	// StderrPrefix marks stderr lines on the wire
	StderrPrefix = "ERROR: "

	// ExitedLinePrefix starts the lifecycle line of a source that terminated
	ExitedLinePrefix = "child process exited with code "

	// StartFailedLinePrefix starts the lifecycle line of a source that never ran
	StartFailedLinePrefix = "child process failed to start: "
)

// Buffer sizes
const (
	// DefaultViewerBuffer is the queue depth of one viewer before it is dropped
	DefaultViewerBuffer = 256

	// ScannerBufferSize is the initial buffer size for log line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for log line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB

	// WSReadBufferSize and WSWriteBufferSize size the websocket upgrader buffers
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
)

// ANSI color codes for terminal output
var (
	// SourceColors are the colors used for source names in terminal output
	SourceColors = []string{
		"\033[36m", // cyan
		"\033[33m", // yellow
		"\033[32m", // green
		"\033[35m", // magenta
		"\033[34m", // blue
		"\033[31m", // red
	}

	// ColorReset resets the terminal color
	ColorReset = "\033[0m"

	// ColorBrightRed is used for stderr output
	ColorBrightRed = "\033[91m"

	// ColorDim is used for lifecycle lines
	ColorDim = "\033[2m"
)
