package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/domain"
	"github.com/charliek/tailhub/internal/hub"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  constants.WSReadBufferSize,
	WriteBufferSize: constants.WSWriteBufferSize,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts non-browser clients (no Origin header), localhost
// pages and pages served from the hub's own host
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || isLocalhostOrigin(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// StreamWS handles the websocket viewer channel. After the handshake the
// channel is outbound only: every event published after the viewer joins is
// written as one JSON text frame.
func (h *Handlers) StreamWS(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusUpgradeRequired, ErrorResponse{
			Error: "websocket upgrade required",
			Code:  domain.ErrCodeUpgradeFailed,
		})
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	viewer, err := h.hub.Connect()
	if err != nil {
		deadline := time.Now().Add(constants.WSWriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()), deadline)
		conn.Close()
		return
	}

	client := newWSClient(conn, viewer, h.logger)
	h.logger.Info("viewer connected",
		zap.String("viewer", viewer.ID()),
		zap.String("remote", r.RemoteAddr))

	client.run()

	h.hub.Disconnect(viewer.ID())
	h.logger.Info("viewer disconnected", zap.String("viewer", viewer.ID()))
}

// wsClient pumps one viewer's queue into its websocket connection
type wsClient struct {
	conn   *websocket.Conn
	viewer *hub.Viewer
	logger *zap.Logger
}

func newWSClient(conn *websocket.Conn, viewer *hub.Viewer, logger *zap.Logger) *wsClient {
	return &wsClient{
		conn:   conn,
		viewer: viewer,
		logger: logger.With(zap.String("viewer", viewer.ID())),
	}
}

// run writes until the queue closes, a write fails or the peer goes away.
// Any failure ends delivery to this viewer only.
func (c *wsClient) run() {
	defer c.conn.Close()

	peerGone := make(chan struct{})
	go c.readLoop(peerGone)

	ticker := time.NewTicker(constants.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.viewer.Events():
			if !ok {
				// Dropped by the hub or hub shutdown
				c.writeClose(websocket.CloseGoingAway, "stream closed")
				return
			}
			if err := c.writeEvent(event); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(constants.WSWriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("websocket ping failed", zap.Error(err))
				return
			}
		case <-peerGone:
			return
		}
	}
}

// readLoop consumes control frames so pongs and close frames are handled.
// Data frames from the viewer are ignored.
func (c *wsClient) readLoop(peerGone chan<- struct{}) {
	defer close(peerGone)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.WSPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writeEvent(event domain.LogEvent) error {
	data, err := EncodeLogMessage(event)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(constants.WSWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) writeClose(code int, reason string) {
	deadline := time.Now().Add(constants.WSWriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
