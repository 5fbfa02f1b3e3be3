package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level tailhub configuration
type Config struct {
	API     APIConfig               `yaml:"api"`
	EnvFile string                  `yaml:"env_file"`
	Follow  string                  `yaml:"follow"`
	Sources map[string]SourceConfig `yaml:"sources"`
}

// APIConfig defines the listener viewers and clients connect to
type APIConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// SourceConfig represents a source that can be either a simple string
// command, an expanded form, or empty to use the follow template
type SourceConfig struct {
	Cmd     string            `yaml:"cmd"`
	Env     map[string]string `yaml:"env"`
	EnvFile string            `yaml:"env_file"`
}

// rawConfig is used for initial YAML parsing to handle the flexible source format
type rawConfig struct {
	API     APIConfig              `yaml:"api"`
	EnvFile string                 `yaml:"env_file"`
	Follow  string                 `yaml:"follow"`
	Sources map[string]interface{} `yaml:"sources"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	if err := checkPermissions(path, info); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	config := &Config{
		API:     raw.API,
		EnvFile: raw.EnvFile,
		Follow:  raw.Follow,
		Sources: make(map[string]SourceConfig),
	}

	if config.API.Port == 0 {
		config.API.Port = constants.DefaultAPIPort
	}
	if config.API.Host == "" {
		config.API.Host = constants.DefaultAPIHost
	}

	for name, value := range raw.Sources {
		src, err := parseSourceConfig(value)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		config.Sources[name] = src
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// parseSourceConfig handles the empty, simple and expanded source definitions
func parseSourceConfig(value interface{}) (SourceConfig, error) {
	switch v := value.(type) {
	case nil:
		// Bare key: web:
		return SourceConfig{}, nil
	case string:
		// Simple form: api: journalctl -f -u api
		return SourceConfig{Cmd: v}, nil
	case map[string]interface{}:
		data, err := yaml.Marshal(v)
		if err != nil {
			return SourceConfig{}, fmt.Errorf("marshaling source config: %w", err)
		}
		var src SourceConfig
		if err := yaml.Unmarshal(data, &src); err != nil {
			return SourceConfig{}, fmt.Errorf("unmarshaling source config: %w", err)
		}
		return src, nil
	default:
		return SourceConfig{}, fmt.Errorf("invalid source configuration type: %T", value)
	}
}

// CommandFor returns the follow command of a source, falling back to the
// follow template with the source name substituted
func (c *Config) CommandFor(name string) string {
	if src, ok := c.Sources[name]; ok && src.Cmd != "" {
		return src.Cmd
	}
	if c.Follow == "" {
		return ""
	}
	return strings.ReplaceAll(c.Follow, constants.SourcePlaceholder, name)
}

// SourceNames returns the configured source names in sorted order
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToDomainSources converts config sources to domain SourceConfig values,
// sorted by name, with env files resolved against configDir
func (c *Config) ToDomainSources(configDir string) ([]domain.SourceConfig, error) {
	sources := make([]domain.SourceConfig, 0, len(c.Sources))
	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		env, err := SourceEnv(c.EnvFile, src, configDir)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		sources = append(sources, domain.SourceConfig{
			Name:    name,
			Cmd:     c.CommandFor(name),
			Env:     env,
			EnvFile: src.EnvFile,
		})
	}
	return sources, nil
}
