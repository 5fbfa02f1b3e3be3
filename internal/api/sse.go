package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/charliek/tailhub/internal/domain"
)

// StreamLogs handles GET /api/v1/logs/stream, the same broadcast as the
// websocket channel delivered as server-sent events
func (h *Handlers) StreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "streaming not supported",
			Code:  domain.ErrCodeStreamingNotSupported,
		})
		return
	}

	viewer, err := h.hub.Connect()
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer h.hub.Disconnect(viewer.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-viewer.Events():
			if !ok {
				return
			}

			data, err := EncodeLogMessage(event)
			if err != nil {
				continue
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				h.logger.Debug("SSE write failed (client likely disconnected)",
					zap.String("viewer", viewer.ID()), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
