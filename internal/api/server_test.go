package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORS(t *testing.T) {
	env := setupTestServer(t, nil)

	tests := []struct {
		name        string
		method      string
		origin      string
		wantAllowed bool
		wantStatus  int
	}{
		{name: "local dev page", method: http.MethodGet, origin: "http://localhost:3000", wantAllowed: true, wantStatus: http.StatusOK},
		{name: "loopback ipv4", method: http.MethodGet, origin: "http://127.0.0.1:8080", wantAllowed: true, wantStatus: http.StatusOK},
		{name: "loopback ipv6", method: http.MethodGet, origin: "http://[::1]", wantAllowed: true, wantStatus: http.StatusOK},
		{name: "foreign site", method: http.MethodGet, origin: "http://evil.com", wantStatus: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight from localhost", method: http.MethodOptions, origin: "http://localhost:3000", wantAllowed: true, wantStatus: http.StatusOK},
		{name: "preflight from foreign site", method: http.MethodOptions, origin: "http://evil.com", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/status", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantAllowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestIsLocalhostOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost",
		"https://localhost:8443",
		"http://127.0.0.1",
		"https://127.0.0.1:5555",
		"http://[::1]:3000",
	}
	rejected := []string{
		"",
		"http://sub.localhost",
		"http://localhost.evil.com",
		"http://127.0.0.1.evil.com",
		"ws://localhost:5555",
		"http://localhostx",
	}

	for _, origin := range allowed {
		assert.True(t, isLocalhostOrigin(origin), origin)
	}
	for _, origin := range rejected {
		assert.False(t, isLocalhostOrigin(origin), origin)
	}
}

func TestServer_Routes(t *testing.T) {
	env := setupTestServer(t, nil, sleeper("web"))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/status", http.StatusOK},
		{http.MethodGet, "/api/v1/sources", http.StatusOK},
		{http.MethodGet, "/api/v1/sources/web", http.StatusOK},
		{http.MethodGet, "/api/v1/sources/nope", http.StatusNotFound},
		{http.MethodPost, "/api/v1/status", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	env := setupTestServer(t, nil)

	// Before Listen the configured address is reported
	assert.Equal(t, "127.0.0.1:0", env.server.Addr())
	assert.Zero(t, env.server.Port())

	require.NoError(t, env.server.Listen())
	port := env.server.Port()
	require.Positive(t, port)
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", port), env.server.Addr())

	served := make(chan error, 1)
	go func() { served <- env.server.Start() }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))

	select {
	case err := <-served:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	t.Run("never listened", func(t *testing.T) {
		env := setupTestServer(t, nil)
		assert.NoError(t, env.server.Shutdown(context.Background()))
	})

	t.Run("listened but not serving releases the port", func(t *testing.T) {
		env := setupTestServer(t, nil)
		require.NoError(t, env.server.Listen())
		addr := env.server.Addr()

		require.NoError(t, env.server.Shutdown(context.Background()))

		_, err := http.Get("http://" + addr + "/health")
		assert.Error(t, err)
	})
}
