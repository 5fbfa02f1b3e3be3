package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/tailhub/internal/domain"
)

func TestToLogMessage(t *testing.T) {
	tests := []struct {
		name  string
		event domain.LogEvent
		want  LogMessage
	}{
		{
			name:  "stdout verbatim",
			event: domain.NewLineEvent("api", domain.StreamStdout, "listening on :8080"),
			want:  LogMessage{Container: "api", Line: "listening on :8080"},
		},
		{
			name:  "stderr prefixed",
			event: domain.NewLineEvent("db", domain.StreamStderr, "connection refused"),
			want:  LogMessage{Container: "db", Line: "ERROR: connection refused"},
		},
		{
			name:  "empty stdout line",
			event: domain.NewLineEvent("api", domain.StreamStdout, ""),
			want:  LogMessage{Container: "api", Line: ""},
		},
		{
			name:  "exit lifecycle",
			event: domain.NewExitEvent("db", 137),
			want:  LogMessage{Container: "db", Line: "child process exited with code 137"},
		},
		{
			name:  "signal lifecycle",
			event: domain.NewExitEvent("db", -15),
			want:  LogMessage{Container: "db", Line: "child process exited with code -15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToLogMessage(tt.event))
		})
	}
}

func TestEncodeLogMessage(t *testing.T) {
	data, err := EncodeLogMessage(domain.NewLineEvent("api", domain.StreamStderr, `quote " and \ slash`))
	require.NoError(t, err)

	assert.JSONEq(t, `{"container":"api","line":"ERROR: quote \" and \\ slash"}`, string(data))
}

func TestDecodeLogMessage(t *testing.T) {
	msg, err := DecodeLogMessage([]byte(`{"container":"api","line":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, LogMessage{Container: "api", Line: "hello"}, msg)

	_, err = DecodeLogMessage([]byte(`{"line":"orphan"}`))
	assert.Error(t, err)

	_, err = DecodeLogMessage([]byte(`not json`))
	assert.Error(t, err)
}

func TestFilterSensitiveEnv(t *testing.T) {
	env := map[string]string{
		"PATH":            "/usr/bin",
		"DB_PASSWORD":     "secret123",
		"AWS_SECRET_KEY":  "aws-secret",
		"GITHUB_TOKEN":    "ghp_xxx",
		"private_setting": "hidden",
		"AUTH_HEADER":     "Bearer x",
		"LOG_LEVEL":       "debug",
	}

	filtered := filterSensitiveEnv(env)

	assert.Equal(t, "/usr/bin", filtered["PATH"])
	assert.Equal(t, "debug", filtered["LOG_LEVEL"])
	for _, key := range []string{"DB_PASSWORD", "AWS_SECRET_KEY", "GITHUB_TOKEN", "private_setting", "AUTH_HEADER"} {
		assert.Equal(t, "[REDACTED]", filtered[key], key)
	}

	// Original map untouched
	assert.Equal(t, "secret123", env["DB_PASSWORD"])

	assert.Nil(t, filterSensitiveEnv(nil))
}

func TestToSourceResponse(t *testing.T) {
	code := 2
	info := domain.SourceInfo{
		Name:     "worker",
		State:    domain.SourceStateExited,
		PID:      4242,
		ExitCode: &code,
		Lines:    17,
	}

	resp := ToSourceResponse(info)

	assert.Equal(t, "worker", resp.Name)
	assert.Equal(t, "exited", resp.State)
	assert.Equal(t, 4242, resp.PID)
	assert.Equal(t, int64(0), resp.UptimeSeconds)
	require.NotNil(t, resp.ExitCode)
	assert.Equal(t, 2, *resp.ExitCode)
	assert.Equal(t, uint64(17), resp.Lines)
}

func TestToSourceDetailResponse(t *testing.T) {
	startedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	info := domain.SourceInfo{
		Name:      "api",
		State:     domain.SourceStateRunning,
		StartedAt: startedAt,
		Cmd:       "kubectl logs -f api",
	}

	resp := ToSourceDetailResponse(info)

	assert.Equal(t, "kubectl logs -f api", resp.Cmd)
	assert.Equal(t, "2024-03-01T12:00:00Z", resp.StartedAt)
	assert.Nil(t, resp.Env)

	info.StartedAt = time.Time{}
	assert.Empty(t, ToSourceDetailResponse(info).StartedAt)
}
