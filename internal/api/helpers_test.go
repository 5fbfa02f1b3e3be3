package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charliek/tailhub/internal/domain"
	"github.com/charliek/tailhub/internal/hub"
	"github.com/charliek/tailhub/internal/supervisor"
)

type testEnv struct {
	server     *Server
	supervisor *supervisor.Supervisor
	hub        *hub.Hub
}

// setupTestServer wires a real supervisor and hub behind the router. The
// sources are started unless none are given.
func setupTestServer(t *testing.T, shutdownFn func(), sources ...domain.SourceConfig) *testEnv {
	t.Helper()

	h := hub.New(hub.DefaultConfig(), nil)
	sup := supervisor.New(sources, h, nil, supervisor.DefaultSupervisorConfig(), nil)

	if len(sources) > 0 {
		_, err := sup.Start(context.Background())
		require.NoError(t, err)
	}

	handlers := NewHandlers(sup, h, "tailhub.yaml", shutdownFn, nil)
	server := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, handlers, nil)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Close()
		_ = sup.Stop(ctx)
	})

	return &testEnv{server: server, supervisor: sup, hub: h}
}

func sleeper(name string) domain.SourceConfig {
	return domain.SourceConfig{Name: name, Cmd: "sleep 30"}
}

// waitForViewers blocks until the hub has n viewers
func waitForViewers(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.Count() == n
	}, 2*time.Second, 10*time.Millisecond)
}
