// Package supervisor runs one follow process per configured source and turns
// its output into log events.
//
// # Security Model
//
// Follow commands are executed via "sh -c" so that pipes, redirects and
// variable expansion work. A configuration file therefore has the same trust
// level as a Makefile: only load configuration from trusted sources.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/charliek/tailhub/internal/domain"
)

// ProcessRunner creates and starts follow processes
type ProcessRunner interface {
	Start(ctx context.Context, config domain.SourceConfig, env map[string]string) (Process, error)
}

// Process represents a running follow process
type Process interface {
	PID() int
	Wait() error
	Signal(sig os.Signal) error
	Stdout() io.Reader
	Stderr() io.Reader
	// Close releases the read ends of the output pipes, unblocking readers
	Close() error
}

// ExecRunner implements ProcessRunner using os/exec
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start starts a new process. The context only guards the launch itself; a
// started process outlives it and is stopped with Signal.
func (r *ExecRunner) Start(ctx context.Context, config domain.SourceConfig, env map[string]string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command("sh", "-c", config.Cmd)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	// Manual pipes: Wait must not close the read ends before the readers
	// have drained what the process wrote last.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	// Set process group so we can signal every descendant
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	startErr := cmd.Start()

	// The child holds its own copies of the write ends now
	stdoutW.Close()
	stderrW.Close()

	if startErr != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, fmt.Errorf("starting process: %w", startErr)
	}

	return &execProcess{
		cmd:    cmd,
		stdout: stdoutR,
		stderr: stderrR,
	}, nil
}

// execProcess wraps exec.Cmd to implement Process interface
type execProcess struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(p.cmd.Process.Pid)
	if err != nil {
		// Fall back to signaling just the process
		return p.cmd.Process.Signal(sig)
	}

	return syscall.Kill(-pgid, sig.(syscall.Signal))
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Stderr() io.Reader {
	return p.stderr
}

func (p *execProcess) Close() error {
	errOut := p.stdout.Close()
	errErr := p.stderr.Close()
	if errOut != nil {
		return errOut
	}
	return errErr
}
