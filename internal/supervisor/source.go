package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"go.uber.org/zap"
)

// outputDrainTimeout is the maximum time to wait for output readers to finish
// after a process exits. Grandchildren that inherited the pipes may still be
// writing; after this long the pipes are closed under them.
const outputDrainTimeout = 5 * time.Second

// truncatedSuffix marks a line cut at constants.ScannerMaxBufferSize
const truncatedSuffix = " [truncated]"

// Publisher receives every event a source produces
type Publisher interface {
	Publish(event domain.LogEvent)
}

// ManagedSource is the Source Reader of one source: it runs the follow
// process once and publishes its output line by line.
type ManagedSource struct {
	mu sync.RWMutex

	config    domain.SourceConfig
	runner    ProcessRunner
	publisher Publisher
	logger    *zap.Logger

	started   bool
	stopping  bool
	state     domain.SourceState
	process   Process
	pid       int
	startedAt time.Time
	exitCode  *int

	// emitMu orders all publishes of this source; finished is set by the
	// lifecycle event and blocks any later emission
	emitMu   sync.Mutex
	finished bool
	lines    atomic.Uint64

	done     chan struct{}
	doneOnce sync.Once

	// outputWg tracks completion of output reader goroutines
	outputWg sync.WaitGroup
}

// NewManagedSource creates a source reader. Nothing runs until Start.
func NewManagedSource(config domain.SourceConfig, runner ProcessRunner, publisher Publisher, logger *zap.Logger) *ManagedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagedSource{
		config:    config,
		runner:    runner,
		publisher: publisher,
		logger:    logger.With(zap.String("source", config.Name)),
		state:     domain.SourceStateStarting,
		done:      make(chan struct{}),
	}
}

// Name returns the source name
func (s *ManagedSource) Name() string {
	return s.config.Name
}

// Info returns a snapshot of the source's runtime state
func (s *ManagedSource) Info() domain.SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := domain.SourceInfo{
		Name:      s.config.Name,
		State:     s.state,
		PID:       s.pid,
		StartedAt: s.startedAt,
		Lines:     s.lines.Load(),
		Cmd:       s.config.Cmd,
		Env:       s.config.Env,
	}
	if s.exitCode != nil {
		code := *s.exitCode
		info.ExitCode = &code
	}
	return info
}

// State returns the current state
func (s *ManagedSource) State() domain.SourceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Done is closed once the source has emitted its lifecycle event
func (s *ManagedSource) Done() <-chan struct{} {
	return s.done
}

// Start launches the follow process. A source is started at most once; a
// launch failure is published as the source's lifecycle event and returned.
func (s *ManagedSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return domain.ErrSourceAlreadyStarted
	}
	s.started = true

	proc, err := s.runner.Start(ctx, s.config, s.config.Env)
	if err != nil {
		s.state = domain.SourceStateFailed
		s.logger.Error("follow process failed to start", zap.Error(err))
		s.emit(domain.NewStartFailedEvent(s.config.Name, err))
		s.closeDone()
		return fmt.Errorf("source %s: %w", s.config.Name, err)
	}

	s.process = proc
	s.pid = proc.PID()
	s.startedAt = time.Now()
	s.state = domain.SourceStateRunning
	s.logger.Info("follow process started", zap.Int("pid", s.pid), zap.String("cmd", s.config.Cmd))

	s.outputWg.Add(2)
	go func() {
		defer s.outputWg.Done()
		s.readOutput(proc.Stdout(), domain.StreamStdout)
	}()
	go func() {
		defer s.outputWg.Done()
		s.readOutput(proc.Stderr(), domain.StreamStderr)
	}()

	go s.monitor(proc)

	return nil
}

// Stop terminates the follow process group: SIGTERM first, SIGKILL once ctx
// expires. Only used on hub shutdown.
func (s *ManagedSource) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.SourceStateRunning {
		s.mu.Unlock()
		return domain.ErrSourceNotRunning
	}
	if s.stopping {
		s.mu.Unlock()
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stopping = true
	proc := s.process
	s.mu.Unlock()

	if err := proc.Signal(sigterm); err != nil {
		s.logger.Debug("SIGTERM failed (process may have already exited)", zap.Error(err))
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, sending SIGKILL")
		if err := proc.Signal(sigkill); err != nil {
			s.logger.Warn("SIGKILL failed", zap.Error(err))
		}
		select {
		case <-s.done:
		case <-time.After(time.Second):
		}
	}

	return nil
}

// monitor waits for the process to exit and publishes the lifecycle event
// after both readers have drained
func (s *ManagedSource) monitor(proc Process) {
	err := proc.Wait()

	outputDone := make(chan struct{})
	go func() {
		s.outputWg.Wait()
		close(outputDone)
	}()

	select {
	case <-outputDone:
	case <-time.After(outputDrainTimeout):
		s.logger.Warn("output capture timed out, closing pipes")
		proc.Close()
		<-outputDone
	}
	proc.Close()

	exitCode := exitCodeOf(err)

	s.mu.Lock()
	s.state = domain.SourceStateExited
	s.exitCode = &exitCode
	stopping := s.stopping
	s.mu.Unlock()

	if stopping {
		s.logger.Info("follow process stopped", zap.Int("exit_code", exitCode))
	} else {
		s.logger.Warn("follow process exited", zap.Int("exit_code", exitCode))
	}

	s.emit(domain.NewExitEvent(s.config.Name, exitCode))
	s.closeDone()
}

// exitCodeOf extracts the exit status from Wait's error. A process killed by
// a signal reports the negated signal number (e.g. -15 for SIGTERM).
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Signaled() {
			return -int(status.Signal())
		}
		return status.ExitStatus()
	}
	return exitErr.ExitCode()
}

// readOutput frames a pipe into lines and publishes one event per line. A
// final line without a terminator is still published at EOF. Lines longer
// than constants.ScannerMaxBufferSize are cut and marked rather than
// stopping the reader.
func (s *ManagedSource) readOutput(r io.Reader, stream domain.Stream) {
	if r == nil {
		return
	}

	reader := bufio.NewReaderSize(r, constants.ScannerBufferSize)
	line := make([]byte, 0, constants.ScannerBufferSize)
	truncated := false

	for {
		chunk, err := reader.ReadSlice('\n')
		body := bytes.TrimSuffix(chunk, []byte("\n"))
		if room := constants.ScannerMaxBufferSize - len(line); len(body) > room {
			chunk = body[:room]
			truncated = true
		}
		line = append(line, chunk...)

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		// err == nil means the chunk ended with a newline, so even an empty
		// line is a line
		if err == nil || len(line) > 0 {
			s.emit(domain.NewLineEvent(s.config.Name, stream, frameLine(line, truncated)))
		}
		line = line[:0]
		truncated = false

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Warn("output read error", zap.String("stream", stream.String()), zap.Error(err))
				s.emit(domain.NewReadErrorEvent(s.config.Name, err))
				release(r)
			}
			return
		}
	}
}

// release gives up on a pipe after a read error. Closing the read end makes
// further writes fail so the process cannot stall on a full pipe.
func release(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
		return
	}
	_, _ = io.Copy(io.Discard, r)
}

// frameLine strips the line terminator, accepting CRLF
func frameLine(line []byte, truncated bool) string {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if truncated {
		return string(line) + truncatedSuffix
	}
	return string(line)
}

// emit publishes an event unless the lifecycle event already went out
func (s *ManagedSource) emit(event domain.LogEvent) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if s.finished {
		return
	}
	if event.IsLifecycle() {
		s.finished = true
	} else {
		s.lines.Add(1)
	}
	s.publisher.Publish(event)
}

// closeDone safely closes the done channel
func (s *ManagedSource) closeDone() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
