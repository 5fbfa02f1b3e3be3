package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	testAPIAddr = "http://127.0.0.1:15555"
	testWSAddr  = "ws://127.0.0.1:15555/ws"
)

// projectRoot returns the module root, two directories up
func projectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Join(wd, "..", "..")
}

// buildBinary builds the tailhub binary and returns its path
func buildBinary(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "tailhub")
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/tailhub")
	cmd.Dir = projectRoot(t)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build binary:\n%s", output)

	return binary
}

// configPath returns the absolute path of a test config
func configPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "testdata", "configs", name+".yaml")
}

// runTailhub runs a client command in dir and returns its combined output
func runTailhub(t *testing.T, binary, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// startHub starts "tailhub serve" in a fresh working directory
func startHub(t *testing.T, binary, config string) (*exec.Cmd, string) {
	t.Helper()

	dir := t.TempDir()
	cmd := exec.Command(binary, "serve", "-c", config, "--log-level", "debug")
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())

	t.Cleanup(func() { killHub(cmd) })
	return cmd, dir
}

// waitForAPI waits for the hub to answer
func waitForAPI(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("hub did not become ready within %v", timeout)
}

// waitForExit waits for the hub process to end
func waitForExit(t *testing.T, cmd *exec.Cmd, timeout time.Duration) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(timeout):
		t.Fatalf("hub did not exit within %v", timeout)
	}
}

// killHub forcefully kills the hub process
func killHub(cmd *exec.Cmd) {
	if cmd != nil && cmd.Process != nil && cmd.ProcessState == nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

type wireMessage struct {
	Container string `json:"container"`
	Line      string `json:"line"`
}

// dialViewer opens the viewer channel
func dialViewer(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(testWSAddr, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readWire reads one wire message within timeout
func readWire(t *testing.T, conn *websocket.Conn, timeout time.Duration) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg wireMessage
	require.NoError(t, json.Unmarshal(data, &msg), "frame %q", data)
	return msg
}

// getJSON decodes a GET response
func getJSON(t *testing.T, path string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s%s", testAPIAddr, path))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

// skipShort skips the test if -short flag is provided
func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
