package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"bertd/internal/config"
	"bertd/internal/engine"
	"bertd/internal/metrics"
	"bertd/pkg/types"
)

// The concrete engine must satisfy the handler contract.
var _ Service = (*engine.Engine)(nil)

type staticTokenizer struct{}

func (staticTokenizer) Encode(text string) []int { return []int{101, 2054, 102} }

// TestPredictMockModeEndToEnd drives the real engine in mock mode through
// the full router: a missing model file must still produce HTTP 200 with
// correctly shaped output, never 503.
func TestPredictMockModeEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.ModelName = "bert-base-uncased"
	cfg.MaxSequenceLength = 16
	cfg.HiddenSize = 8
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")

	rec := metrics.NewRecorder()
	eng := engine.New(cfg, rec, zerolog.Nop(),
		engine.WithTokenizer(staticTokenizer{}),
		engine.WithMockDelay(0),
	)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	h := NewMux(eng, rec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/models/bert:predict",
		bytes.NewBufferString(`{"text":"hello world","include_embeddings":true}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("mock mode must answer 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp types.PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.BatchSize != 1 || resp.TokensProcessed != 3 {
		t.Fatalf("batch=%d tokens=%d", resp.BatchSize, resp.TokensProcessed)
	}
	if len(resp.PoolerOutput) != 1 || len(resp.PoolerOutput[0]) != 8 {
		t.Fatalf("pooler shape [%d][%d]", len(resp.PoolerOutput), len(resp.PoolerOutput[0]))
	}
	if len(resp.Embeddings) != 1 || len(resp.Embeddings[0]) != 16 || len(resp.Embeddings[0][0]) != 8 {
		t.Fatal("embeddings shape wrong")
	}

	// Health reflects degraded mode without failing.
	hw := httptest.NewRecorder()
	h.ServeHTTP(hw, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health types.HealthResponse
	if err := json.Unmarshal(hw.Body.Bytes(), &health); err != nil {
		t.Fatalf("json: %v", err)
	}
	if health.Status != "healthy" || health.ModelLoaded {
		t.Fatalf("unexpected health: %+v", health)
	}

	// One scrape covers inference and transport samples.
	mw := httptest.NewRecorder()
	h.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := mw.Body.String()
	for _, want := range []string{
		`inference_requests_total{model="bert-base-uncased",status="success"} 1`,
		`inference_model_load_seconds{model="bert-base-uncased"}`,
		"bertd_http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
