package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "bertd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/bertd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

type serverProc struct {
	cmd  *exec.Cmd
	base string
}

// startServer launches bertd pointing at a nonexistent model file, so it
// comes up in mock mode. Skips the test when the server cannot become
// healthy in time: resolving the tokenizer needs network access or a warm
// HuggingFace cache, and a failed resolution is fatal at startup.
func startServer(t *testing.T, bin string, port int) *serverProc {
	t.Helper()
	addr := fmt.Sprintf(":%d", port)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	cmd := exec.Command(bin,
		"-addr", addr,
		"-model-path", filepath.Join(t.TempDir(), "missing.onnx"),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	deadline := time.Now().Add(30 * time.Second)
	for {
		resp, err := http.Get(base + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Skip("server did not become healthy; tokenizer download likely unavailable")
		}
		time.Sleep(100 * time.Millisecond)
	}
	return &serverProc{cmd: cmd, base: base}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_MockModeFlow(t *testing.T) {
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	// Health reports degraded mode without failing.
	resp, body := get(t, sp.base+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/health %d %s", resp.StatusCode, string(body))
	}
	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("/health json: %v body=%s", err, string(body))
	}
	if health.Status != "healthy" || health.ModelLoaded {
		t.Fatalf("unexpected health: %+v", health)
	}

	// Model metadata.
	resp, body = get(t, sp.base+"/v1/models/bert")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/models/bert %d %s", resp.StatusCode, string(body))
	}
	if !bytes.Contains(body, []byte(`"framework":"onnx"`)) {
		t.Fatalf("metadata missing framework: %s", string(body))
	}

	// Predict succeeds in mock mode with a correctly shaped response.
	resp, body = postJSON(t, sp.base+"/v1/models/bert:predict", []byte(`{"text":"hello world"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("predict %d %s", resp.StatusCode, string(body))
	}
	var pr struct {
		PoolerOutput    [][]float32 `json:"pooler_output"`
		BatchSize       int         `json:"batch_size"`
		TokensProcessed int         `json:"tokens_processed"`
	}
	if err := json.Unmarshal(body, &pr); err != nil {
		t.Fatalf("predict json: %v body=%.200s", err, string(body))
	}
	if pr.BatchSize != 1 || len(pr.PoolerOutput) != 1 || pr.TokensProcessed <= 0 {
		t.Fatalf("unexpected predict response: %+v", pr)
	}

	// Missing input shape is a client error.
	resp, body = postJSON(t, sp.base+"/v1/models/bert:predict", []byte(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty request, got %d %s", resp.StatusCode, string(body))
	}

	// Metrics exposition includes both the inference and HTTP samples.
	resp, body = get(t, sp.base+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics %d", resp.StatusCode)
	}
	for _, want := range []string{"inference_requests_total", "inference_model_load_seconds", "bertd_http_requests_total"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("/metrics missing %s", want)
		}
	}
}
