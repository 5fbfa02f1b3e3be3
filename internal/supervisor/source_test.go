package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(name, cmd string, pub Publisher) *ManagedSource {
	return NewManagedSource(domain.SourceConfig{Name: name, Cmd: cmd}, NewExecRunner(), pub, nil)
}

func TestManagedSource_StartStop(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "sleep 30", rec)

	t.Run("initial state is starting", func(t *testing.T) {
		assert.Equal(t, domain.SourceStateStarting, src.State())
	})

	t.Run("start changes state to running", func(t *testing.T) {
		require.NoError(t, src.Start(context.Background()))

		assert.Equal(t, domain.SourceStateRunning, src.State())
		assert.Greater(t, src.Info().PID, 0)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		err := src.Start(context.Background())
		assert.ErrorIs(t, err, domain.ErrSourceAlreadyStarted)
	})

	t.Run("stop emits one lifecycle event", func(t *testing.T) {
		require.NoError(t, src.Stop(stopCtx(t)))
		waitDone(t, src)

		assert.Equal(t, domain.SourceStateExited, src.State())
		lifecycle := rec.Lifecycle("test")
		require.Len(t, lifecycle, 1)
		assert.Equal(t, "child process exited with code -15", lifecycle[0].Text)
	})

	t.Run("cannot stop once exited", func(t *testing.T) {
		err := src.Stop(context.Background())
		assert.ErrorIs(t, err, domain.ErrSourceNotRunning)
	})

	t.Run("no restart after exit", func(t *testing.T) {
		err := src.Start(context.Background())
		assert.ErrorIs(t, err, domain.ErrSourceAlreadyStarted)
	})
}

func TestManagedSource_OutputCapture(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "echo stdout_message; echo stderr_message >&2", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	assert.Equal(t, []string{"stdout_message"}, rec.Texts("test", domain.StreamStdout))
	assert.Equal(t, []string{"stderr_message"}, rec.Texts("test", domain.StreamStderr))
	assert.Equal(t, uint64(2), src.Info().Lines)
}

func TestManagedSource_LinesInOrder(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("X", "printf 'a\\nb\\nc\\n'", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	events := rec.For("X")
	require.Len(t, events, 4)
	assert.Equal(t, []string{"a", "b", "c"}, rec.Texts("X", domain.StreamStdout))
	assert.True(t, events[3].IsLifecycle(), "lifecycle event must be last")
}

func TestManagedSource_FlushesPartialLine(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "printf 'first\\nno terminator'", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	assert.Equal(t, []string{"first", "no terminator"}, rec.Texts("test", domain.StreamStdout))
}

func TestManagedSource_StripsCarriageReturn(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "printf 'dos line\\r\\n\\n'", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	assert.Equal(t, []string{"dos line", ""}, rec.Texts("test", domain.StreamStdout))
}

func TestManagedSource_TruncatesOverlongLine(t *testing.T) {
	rec := &recorder{}
	size := constants.ScannerMaxBufferSize + 100
	cmd := fmt.Sprintf("head -c %d /dev/zero | tr '\\0' 'x'; echo; echo after", size)
	src := newTestSource("test", cmd, rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	lines := rec.Texts("test", domain.StreamStdout)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], truncatedSuffix))
	assert.Len(t, lines[0], constants.ScannerMaxBufferSize+len(truncatedSuffix))
	assert.Equal(t, "after", lines[1])
}

func TestManagedSource_ExitCode(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "echo bye; exit 1", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	lifecycle := rec.Lifecycle("test")
	require.Len(t, lifecycle, 1)
	assert.Equal(t, "child process exited with code 1", lifecycle[0].Text)

	events := rec.For("test")
	assert.Equal(t, lifecycle[0], events[len(events)-1])

	info := src.Info()
	assert.Equal(t, domain.SourceStateExited, info.State)
	require.NotNil(t, info.ExitCode)
	assert.Equal(t, 1, *info.ExitCode)
}

func TestManagedSource_StartFailure(t *testing.T) {
	rec := &recorder{}
	src := NewManagedSource(domain.SourceConfig{Name: "broken", Cmd: "follow"}, failingRunner{}, rec, nil)

	err := src.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	assert.Equal(t, domain.SourceStateFailed, src.State())
	waitDone(t, src)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].IsLifecycle())
	assert.True(t, strings.HasPrefix(events[0].Text, constants.StartFailedLinePrefix))
	assert.NotContains(t, events[0].Text, "exited with code")
}

func TestManagedSource_NoEmissionAfterLifecycle(t *testing.T) {
	rec := &recorder{}
	src := newTestSource("test", "true", rec)

	require.NoError(t, src.Start(context.Background()))
	waitDone(t, src)

	src.emit(domain.NewLineEvent("test", domain.StreamStdout, "late"))
	src.emit(domain.NewExitEvent("test", 0))

	events := rec.For("test")
	require.Len(t, events, 1)
	assert.Equal(t, "child process exited with code 0", events[0].Text)
}

func TestManagedSource_ReadErrorKeepsSourceAlive(t *testing.T) {
	rec := &recorder{}
	stdout := &closeTracker{Reader: failAfter("a\nb", errors.New("boom"))}
	proc := &scriptedProcess{
		stdout:  stdout,
		stderr:  strings.NewReader(""),
		release: make(chan struct{}),
	}
	src := NewManagedSource(domain.SourceConfig{Name: "flaky", Cmd: "follow"}, scriptedRunner{proc: proc}, rec, nil)

	require.NoError(t, src.Start(context.Background()))
	requireEventually(t, func() bool {
		return len(rec.Texts("flaky", domain.StreamStderr)) == 1
	})

	assert.Equal(t, []string{"a", "b"}, rec.Texts("flaky", domain.StreamStdout))
	assert.Equal(t, []string{"output read error: boom"}, rec.Texts("flaky", domain.StreamStderr))
	requireEventually(t, stdout.closed.Load)

	select {
	case <-src.Done():
		t.Fatal("a read error must not end the source")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, rec.Lifecycle("flaky"))
	assert.Equal(t, domain.SourceStateRunning, src.State())

	close(proc.release)
	waitDone(t, src)

	lifecycle := rec.Lifecycle("flaky")
	require.Len(t, lifecycle, 1)
	assert.Equal(t, "child process exited with code 0", lifecycle[0].Text)
	events := rec.For("flaky")
	assert.True(t, events[len(events)-1].IsLifecycle())
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, 0, exitCodeOf(nil))
	assert.Equal(t, 1, exitCodeOf(assert.AnError))
}
