// Package hub fans log events out to every connected viewer.
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"go.uber.org/zap"
)

// Config holds configuration for the hub
type Config struct {
	ViewerBuffer int // Queue depth of each viewer before it is dropped
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ViewerBuffer: constants.DefaultViewerBuffer,
	}
}

// Hub owns the registry of connected viewers. Every published event is
// delivered to every viewer registered at that moment; new viewers get no
// backlog.
type Hub struct {
	mu      sync.Mutex
	viewers map[string]*Viewer
	closed  bool

	config Config
	logger *zap.Logger

	published atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a hub
func New(config Config, logger *zap.Logger) *Hub {
	if config.ViewerBuffer <= 0 {
		config.ViewerBuffer = DefaultConfig().ViewerBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		viewers: make(map[string]*Viewer),
		config:  config,
		logger:  logger.Named("hub"),
	}
}

// Connect registers a new viewer
func (h *Hub) Connect() (*Viewer, error) {
	v := newViewer(h.config.ViewerBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, domain.ErrHubClosed
	}
	h.viewers[v.id] = v

	h.logger.Debug("viewer connected", zap.String("viewer", v.id), zap.Int("viewers", len(h.viewers)))
	return v, nil
}

// Disconnect removes a viewer and closes its queue. Safe to call more than
// once and concurrently with Publish.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	v, ok := h.viewers[id]
	if ok {
		delete(h.viewers, id)
	}
	remaining := len(h.viewers)
	h.mu.Unlock()

	if ok && v.close() {
		h.logger.Debug("viewer disconnected", zap.String("viewer", id), zap.Int("viewers", remaining))
	}
}

// Publish delivers event to every registered viewer without blocking. A
// viewer that cannot take the event is dropped; the others are unaffected.
func (h *Hub) Publish(event domain.LogEvent) {
	h.published.Add(1)

	for _, v := range h.snapshot() {
		if v.send(event) {
			continue
		}
		h.drop(v)
	}
}

// snapshot copies the registry so sends happen without holding the lock
func (h *Hub) snapshot() []*Viewer {
	h.mu.Lock()
	defer h.mu.Unlock()

	viewers := make([]*Viewer, 0, len(h.viewers))
	for _, v := range h.viewers {
		viewers = append(viewers, v)
	}
	return viewers
}

func (h *Hub) drop(v *Viewer) {
	h.mu.Lock()
	current, ok := h.viewers[v.id]
	if ok && current == v {
		delete(h.viewers, v.id)
	}
	h.mu.Unlock()

	if v.close() {
		h.dropped.Add(1)
		h.logger.Warn("dropped unresponsive viewer", zap.String("viewer", v.id))
	}
}

// Count returns the number of connected viewers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Stats returns hub counters
func (h *Hub) Stats() domain.HubStats {
	return domain.HubStats{
		Viewers:         h.Count(),
		EventsPublished: h.published.Load(),
		ViewersDropped:  h.dropped.Load(),
	}
}

// Close disconnects every viewer and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	viewers := make([]*Viewer, 0, len(h.viewers))
	for _, v := range h.viewers {
		viewers = append(viewers, v)
	}
	h.viewers = make(map[string]*Viewer)
	h.mu.Unlock()

	for _, v := range viewers {
		v.close()
	}
	h.logger.Debug("hub closed", zap.Int("viewers", len(viewers)))
}
