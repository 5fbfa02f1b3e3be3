package api

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
)

// sensitiveEnvPatterns contains patterns that indicate sensitive environment variables
var sensitiveEnvPatterns = []string{
	"PASSWORD",
	"SECRET",
	"KEY",
	"TOKEN",
	"CREDENTIAL",
	"PRIVATE",
	"AUTH",
}

// errMissingContainer rejects wire messages without a source
var errMissingContainer = errors.New("log message has no container")

// LogMessage is the wire form of one log event, sent as one JSON object per
// websocket frame or SSE event
type LogMessage struct {
	Container string `json:"container"`
	Line      string `json:"line"`
}

// ToLogMessage converts a domain event to its wire form. Stderr lines carry
// the "ERROR: " prefix; lifecycle text is sent verbatim.
func ToLogMessage(event domain.LogEvent) LogMessage {
	line := event.Text
	if event.Stream == domain.StreamStderr {
		line = constants.StderrPrefix + line
	}
	return LogMessage{
		Container: event.Source,
		Line:      line,
	}
}

// EncodeLogMessage marshals the wire form of an event
func EncodeLogMessage(event domain.LogEvent) ([]byte, error) {
	return json.Marshal(ToLogMessage(event))
}

// DecodeLogMessage parses one wire message
func DecodeLogMessage(data []byte) (LogMessage, error) {
	var msg LogMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return LogMessage{}, err
	}
	if msg.Container == "" {
		return LogMessage{}, errMissingContainer
	}
	return msg, nil
}

// HealthResponse represents the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	ConfigFile      string `json:"config_file,omitempty"`
	APIVersion      string `json:"api_version"`
	Sources         int    `json:"sources"`
	SourcesRunning  int    `json:"sources_running"`
	Viewers         int    `json:"viewers"`
	EventsPublished uint64 `json:"events_published"`
	ViewersDropped  uint64 `json:"viewers_dropped"`
}

// SourceListResponse represents the response for GET /sources
type SourceListResponse struct {
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse represents a single source in responses
type SourceResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ExitCode      *int   `json:"exit_code,omitempty"`
	Lines         uint64 `json:"lines"`
}

// SourceDetailResponse represents the response for GET /sources/{name}
type SourceDetailResponse struct {
	SourceResponse
	Cmd       string            `json:"cmd"`
	StartedAt string            `json:"started_at,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToSourceResponse converts domain.SourceInfo to SourceResponse
func ToSourceResponse(info domain.SourceInfo) SourceResponse {
	return SourceResponse{
		Name:          info.Name,
		State:         info.State.String(),
		PID:           info.PID,
		UptimeSeconds: info.UptimeSeconds(),
		ExitCode:      info.ExitCode,
		Lines:         info.Lines,
	}
}

// ToSourceDetailResponse converts domain.SourceInfo to SourceDetailResponse
func ToSourceDetailResponse(info domain.SourceInfo) SourceDetailResponse {
	resp := SourceDetailResponse{
		SourceResponse: ToSourceResponse(info),
		Cmd:            info.Cmd,
		Env:            filterSensitiveEnv(info.Env),
	}
	if !info.StartedAt.IsZero() {
		resp.StartedAt = info.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// filterSensitiveEnv replaces values of sensitive-looking variables with "[REDACTED]"
func filterSensitiveEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}

	filtered := make(map[string]string, len(env))
	for key, value := range env {
		if isSensitiveEnvVar(key) {
			filtered[key] = "[REDACTED]"
		} else {
			filtered[key] = value
		}
	}
	return filtered
}

// isSensitiveEnvVar checks if an environment variable name matches sensitive patterns
func isSensitiveEnvVar(name string) bool {
	upperName := strings.ToUpper(name)
	for _, pattern := range sensitiveEnvPatterns {
		if strings.Contains(upperName, pattern) {
			return true
		}
	}
	return false
}

// StreamHandlers receives the events of a client's viewer channel. Nil
// handlers are skipped.
type StreamHandlers struct {
	// OnConnect runs once the channel is open
	OnConnect func()
	// OnMessage runs for every decoded message, in delivery order
	OnMessage func(LogMessage)
	// OnMalformed runs for every frame that is not a valid message
	OnMalformed func(data []byte, err error)
}
