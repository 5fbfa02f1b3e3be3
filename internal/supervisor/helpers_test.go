package supervisor

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/charliek/tailhub/internal/domain"
	"github.com/stretchr/testify/require"
)

// recorder is a Publisher that keeps every event it receives
type recorder struct {
	mu     sync.Mutex
	events []domain.LogEvent
}

func (r *recorder) Publish(event domain.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) Events() []domain.LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LogEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) For(source string) []domain.LogEvent {
	var out []domain.LogEvent
	for _, e := range r.Events() {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) Texts(source string, stream domain.Stream) []string {
	var out []string
	for _, e := range r.For(source) {
		if e.Stream == stream {
			out = append(out, e.Text)
		}
	}
	return out
}

func (r *recorder) Lifecycle(source string) []domain.LogEvent {
	var out []domain.LogEvent
	for _, e := range r.For(source) {
		if e.IsLifecycle() {
			out = append(out, e)
		}
	}
	return out
}

// failingRunner never manages to launch anything
type failingRunner struct{}

func (failingRunner) Start(context.Context, domain.SourceConfig, map[string]string) (Process, error) {
	return nil, errors.New("exec: \"follow\": executable file not found in $PATH")
}

// selectiveRunner fails for the named sources and delegates the rest
type selectiveRunner struct {
	fail map[string]bool
	next ProcessRunner
}

func (r selectiveRunner) Start(ctx context.Context, config domain.SourceConfig, env map[string]string) (Process, error) {
	if r.fail[config.Name] {
		return failingRunner{}.Start(ctx, config, env)
	}
	return r.next.Start(ctx, config, env)
}

func waitDone(t *testing.T, src *ManagedSource) {
	t.Helper()
	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("source %s did not finish", src.Name())
	}
}

func stopCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func requireEventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 20*time.Millisecond)
}

// closeTracker records whether the source gave up on its pipe
type closeTracker struct {
	io.Reader
	closed atomic.Bool
}

func (c *closeTracker) Close() error {
	c.closed.Store(true)
	return nil
}

// scriptedProcess replays fixed output and exits when released
type scriptedProcess struct {
	stdout  io.Reader
	stderr  io.Reader
	release chan struct{}
}

func (p *scriptedProcess) PID() int               { return 4242 }
func (p *scriptedProcess) Signal(os.Signal) error { return nil }
func (p *scriptedProcess) Stdout() io.Reader      { return p.stdout }
func (p *scriptedProcess) Stderr() io.Reader      { return p.stderr }
func (p *scriptedProcess) Close() error           { return nil }

func (p *scriptedProcess) Wait() error {
	<-p.release
	return nil
}

// scriptedRunner hands out one prepared process
type scriptedRunner struct {
	proc Process
}

func (r scriptedRunner) Start(context.Context, domain.SourceConfig, map[string]string) (Process, error) {
	return r.proc, nil
}

// failAfter yields its data and then fails with err
func failAfter(data string, err error) io.Reader {
	return io.MultiReader(strings.NewReader(data), iotest.ErrReader(err))
}
