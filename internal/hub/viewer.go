package hub

import (
	"sync"

	"github.com/charliek/tailhub/internal/domain"
	"github.com/google/uuid"
)

// Viewer is one registered connection. Its queue is drained by the
// connection's writer; once closed it accepts nothing more.
type Viewer struct {
	id string
	ch chan domain.LogEvent

	// mu makes send and close mutually exclusive so a concurrent
	// disconnect can never race a publish into a closed channel
	mu     sync.Mutex
	closed bool
}

func newViewer(bufferSize int) *Viewer {
	return &Viewer{
		id: uuid.NewString(),
		ch: make(chan domain.LogEvent, bufferSize),
	}
}

// ID returns the viewer ID
func (v *Viewer) ID() string {
	return v.id
}

// Events returns the viewer's queue. It is closed when the viewer is
// disconnected for any reason.
func (v *Viewer) Events() <-chan domain.LogEvent {
	return v.ch
}

// send enqueues without blocking. It returns false if the viewer is closed
// or its queue is full.
func (v *Viewer) send(event domain.LogEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}

	select {
	case v.ch <- event:
		return true
	default:
		return false
	}
}

// close closes the queue; reports whether this call closed it
func (v *Viewer) close() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	v.closed = true
	close(v.ch)
	return true
}
