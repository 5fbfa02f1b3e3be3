package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charliek/tailhub/internal/domain"
	"github.com/joho/godotenv"
)

// ConfigCandidates are the file names FindConfigFile looks for, in order
var ConfigCandidates = []string{
	"tailhub.yaml",
	"tailhub.yml",
	".tailhub.yaml",
	".tailhub.yml",
}

// ReadEnvFile parses a dotenv file. A missing file is an error since the
// source that names it depends on its variables.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("env file not found: %s", path)
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return env, nil
}

// SourceEnv builds the extra environment of one source's follow command.
// Later layers win: global env_file, then the source's env_file, then its
// inline env. The runner puts the hub's own environment underneath.
func SourceEnv(globalEnvFile string, src SourceConfig, configDir string) (map[string]string, error) {
	layers := []struct {
		name string
		path string
	}{
		{"global env_file", globalEnvFile},
		{"env_file", src.EnvFile},
	}

	env := make(map[string]string, len(src.Env))
	for _, layer := range layers {
		if layer.path == "" {
			continue
		}
		vars, err := ReadEnvFile(resolvePath(layer.path, configDir))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", layer.name, err)
		}
		maps.Copy(env, vars)
	}
	maps.Copy(env, src.Env)
	return env, nil
}

// resolvePath makes a relative path relative to the config file's directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile returns the first of ConfigCandidates present in dir
func FindConfigFile(dir string) (string, error) {
	for _, name := range ConfigCandidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %v)", domain.ErrConfigNotFound, dir, ConfigCandidates)
}

// checkPermissions refuses world-writable config files: they name commands
// the hub runs
func checkPermissions(path string, info fs.FileInfo) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if info.Mode().Perm()&0o002 != 0 {
		return fmt.Errorf("config file %s is world-writable; run: chmod o-w %s", path, path)
	}
	return nil
}
