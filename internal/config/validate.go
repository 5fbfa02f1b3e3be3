package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
)

var sourceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(config *Config) error {
	var errs []string

	if config.API.Port < 0 || config.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port: must be between 0 and 65535, got %d", config.API.Port))
	}

	if len(config.Sources) == 0 {
		errs = append(errs, "sources: at least one source must be defined")
	}

	if config.Follow != "" && !strings.Contains(config.Follow, constants.SourcePlaceholder) {
		errs = append(errs, fmt.Sprintf("follow: template must contain %s", constants.SourcePlaceholder))
	}

	for _, name := range config.SourceNames() {
		if err := ValidateSourceName(name); err != nil {
			errs = append(errs, fmt.Sprintf("sources.%s: %s", name, err.(*ValidationError).Message))
		}
		if config.CommandFor(name) == "" {
			errs = append(errs, fmt.Sprintf("sources.%s.cmd: command is required when no follow template is set", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ValidateSourceName checks if a source name is usable as a bucket key
func ValidateSourceName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "source name cannot be empty"}
	}
	if strings.EqualFold(name, constants.AllSourcesKey) {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("source name %q is reserved for the aggregate view", constants.AllSourcesKey)}
	}
	if !sourceNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Message: "source name may only contain letters, digits, '.', '_' and '-'"}
	}
	return nil
}
