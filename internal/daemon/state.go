package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// StateDirName is the name of the directory storing runtime state
	StateDirName = ".tailhub"
	// StateFileName is the name of the state file
	StateFileName = "state.json"
	// PIDFileName is the name of the PID file
	PIDFileName = "tailhub.pid"
	// LogFileName is the name of the hub log file used by serve --log-file
	LogFileName = "tailhub.log"
)

// State describes a running hub so clients in the same directory can find
// it without flags. It is written once at startup and read by clients.
type State struct {
	PID        int       `json:"pid"`
	Port       int       `json:"port"`
	Host       string    `json:"host"`
	StartedAt  time.Time `json:"started_at"`
	ConfigFile string    `json:"config_file"`
	Sources    []string  `json:"sources,omitempty"`
}

// Address returns host:port of the hub's HTTP server
func (s *State) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *State) validate() error {
	var problems []error
	if s.PID <= 0 {
		problems = append(problems, fmt.Errorf("pid %d is not a process id", s.PID))
	}
	if s.Port < 1 || s.Port > 65535 {
		problems = append(problems, fmt.Errorf("port %d is out of range", s.Port))
	}
	if s.Host == "" {
		problems = append(problems, errors.New("host is empty"))
	}
	if s.ConfigFile == "" {
		problems = append(problems, errors.New("config file is empty"))
	}
	if err := errors.Join(problems...); err != nil {
		return fmt.Errorf("invalid hub state: %w", err)
	}
	return nil
}

// Write stores the state under dir. Clients never observe a partial
// document.
func (s *State) Write(dir string) error {
	if err := s.validate(); err != nil {
		return err
	}
	if err := EnsureStateDir(dir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding hub state: %w", err)
	}
	return replaceFile(StatePath(dir), data)
}

// replaceFile writes data next to path and renames it into place
func replaceFile(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadState reads the state file under dir
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(StatePath(dir))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrStateNotFound
	case err != nil:
		return nil, fmt.Errorf("reading hub state: %w", err)
	}

	state := new(State)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decoding hub state: %w", err)
	}
	return state, nil
}

// RemoveState removes the state file under dir
func RemoveState(dir string) error {
	return removeIfPresent(StatePath(dir))
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// StateDir returns the .tailhub directory inside dir. An empty dir means the
// working directory.
func StateDir(dir string) string {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	return filepath.Join(dir, StateDirName)
}

// StatePath returns the full path to the state file
func StatePath(dir string) string { return filepath.Join(StateDir(dir), StateFileName) }

// PIDPath returns the full path to the PID file
func PIDPath(dir string) string { return filepath.Join(StateDir(dir), PIDFileName) }

// LogPath returns the full path to the hub log file
func LogPath(dir string) string { return filepath.Join(StateDir(dir), LogFileName) }

// EnsureStateDir creates the state directory, readable only by the owner
func EnsureStateDir(dir string) error {
	if err := os.MkdirAll(StateDir(dir), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// CleanupStateDir removes the state and PID files. The log file is kept.
func CleanupStateDir(dir string) error {
	return errors.Join(RemoveState(dir), removeIfPresent(PIDPath(dir)))
}
