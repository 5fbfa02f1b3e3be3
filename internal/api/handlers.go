package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/charliek/tailhub/internal/domain"
	"github.com/charliek/tailhub/internal/hub"
	"github.com/charliek/tailhub/internal/supervisor"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	supervisor *supervisor.Supervisor
	hub        *hub.Hub
	configFile string
	shutdownFn func()
	logger     *zap.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(sup *supervisor.Supervisor, h *hub.Hub, configFile string, shutdownFn func(), logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		supervisor: sup,
		hub:        h,
		configFile: configFile,
		shutdownFn: shutdownFn,
		logger:     logger.Named("api"),
	}
}

// GetStatus handles GET /api/v1/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.supervisor.Status()
	stats := h.hub.Stats()

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:          status.State,
		UptimeSeconds:   status.UptimeSeconds(),
		ConfigFile:      h.configFile,
		APIVersion:      "v1",
		Sources:         status.Total,
		SourcesRunning:  status.Running,
		Viewers:         stats.Viewers,
		EventsPublished: stats.EventsPublished,
		ViewersDropped:  stats.ViewersDropped,
	})
}

// GetSources handles GET /api/v1/sources
func (h *Handlers) GetSources(w http.ResponseWriter, r *http.Request) {
	sources := h.supervisor.Sources()

	resp := SourceListResponse{
		Sources: make([]SourceResponse, len(sources)),
	}
	for i, s := range sources {
		resp.Sources[i] = ToSourceResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetSource handles GET /api/v1/sources/{name}
func (h *Handlers) GetSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	info, err := h.supervisor.Source(name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToSourceDetailResponse(info))
}

// Shutdown handles POST /api/v1/shutdown
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	go func() {
		time.Sleep(100 * time.Millisecond) // Let response complete
		if h.shutdownFn != nil {
			h.shutdownFn()
		}
	}()
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to a status and code. Unknown errors are
// logged and answered with a sanitized message.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrSourceAlreadyStarted), errors.Is(err, domain.ErrSourceNotRunning):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidPattern):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrHubClosed), errors.Is(err, domain.ErrShutdownInProgress):
		status = http.StatusServiceUnavailable
		message = err.Error()
	default:
		h.logger.Error("internal error", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  domain.ErrorCode(err),
	})
}
