package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charliek/tailhub/internal/api"
	"github.com/charliek/tailhub/internal/constants"
	"github.com/gorilla/websocket"
)

// Client talks to a running hub: REST for status and control, the
// websocket viewer channel for logs
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Health checks that the hub answers
func (c *Client) Health() error {
	var resp api.HealthResponse
	return c.get("/health", &resp)
}

// GetStatus gets hub status
func (c *Client) GetStatus() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSources gets all sources
func (c *Client) GetSources() (*api.SourceListResponse, error) {
	var resp api.SourceListResponse
	if err := c.get("/api/v1/sources", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSource gets a single source
func (c *Client) GetSource(name string) (*api.SourceDetailResponse, error) {
	var resp api.SourceDetailResponse
	if err := c.get("/api/v1/sources/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the hub to exit
func (c *Client) Shutdown() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/shutdown", &resp)
}

// streamURL returns the websocket URL of the viewer channel
func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid hub address %q: %w", c.baseURL, err)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in hub address", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("hub address %q has no host", c.baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// StreamLogs opens the viewer channel and delivers every message in order
// until the hub closes it or ctx is cancelled. A message that does not
// decode goes to OnMalformed and the stream continues.
func (c *Client) StreamLogs(ctx context.Context, handlers api.StreamHandlers) error {
	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connecting to %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	defer conn.Close()

	if handlers.OnConnect != nil {
		handlers.OnConnect()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		msg, err := api.DecodeLogMessage(data)
		if err != nil {
			if handlers.OnMalformed != nil {
				handlers.OnMalformed(data, err)
			}
			continue
		}
		if handlers.OnMessage != nil {
			handlers.OnMessage(msg)
		}
	}
}

func (c *Client) get(path string, v interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) post(path string, v interface{}) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Code != "" {
			return &APIError{Status: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// APIError is an error response from the hub
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the hub
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
