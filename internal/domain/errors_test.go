package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"source not found", ErrSourceNotFound, ErrCodeSourceNotFound},
		{"source already started", ErrSourceAlreadyStarted, ErrCodeSourceAlreadyStarted},
		{"source not running", ErrSourceNotRunning, ErrCodeSourceNotRunning},
		{"hub closed", ErrHubClosed, ErrCodeHubClosed},
		{"invalid pattern", ErrInvalidPattern, ErrCodeInvalidPattern},
		{"shutdown in progress", ErrShutdownInProgress, ErrCodeShutdownInProgress},
		{"wrapped", fmt.Errorf("source web: %w", ErrSourceNotFound), ErrCodeSourceNotFound},
		{"unknown error", errors.New("some error"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
