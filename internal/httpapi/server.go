package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bertd/internal/engine"
	"bertd/internal/metrics"
	"bertd/pkg/types"
)

// maxBodyBytes caps JSON request bodies. Pre-tokenized batches at the
// default 512 sequence length fit comfortably under 1 MiB.
const maxBodyBytes int64 = 1 << 20

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Loaded() bool
	Metadata() types.ModelMetadata
	Normalize(req types.PredictRequest) (engine.TokenizedBatch, error)
	Infer(ctx context.Context, batch engine.TokenizedBatch) (engine.Outcome, error)
}

// NewMux builds the router. svc may be nil (lifecycle never initialized);
// predict then answers 503 while health and metrics keep working.
func NewMux(svc Service, rec *metrics.Recorder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	// The original deployment serves a browser demo page from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(NewMetricsMiddleware(rec.Registry()))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", handleHealth(svc))
	r.Get("/v1/models/bert", handleModelInfo(svc))
	r.Post("/v1/models/bert:predict", handlePredict(svc))
	r.Get("/metrics", rec.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// handleHealth godoc
// @Summary  Health check
// @Produce  json
// @Success  200 {object} types.HealthResponse
// @Router   /health [get]
func handleHealth(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:      "healthy",
			ModelLoaded: svc != nil && svc.Loaded(),
		})
	}
}

// handleModelInfo godoc
// @Summary  Model metadata
// @Produce  json
// @Success  200 {object} types.ModelMetadata
// @Failure  503 {object} types.ErrorResponse
// @Router   /v1/models/bert [get]
func handleModelInfo(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "model not loaded")
			return
		}
		writeJSON(w, http.StatusOK, svc.Metadata())
	}
}

// handlePredict godoc
// @Summary  Run inference
// @Accept   json
// @Produce  json
// @Param    request body types.PredictRequest true "one of text, texts, or inputs"
// @Success  200 {object} types.PredictResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  500 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /v1/models/bert:predict [post]
func handlePredict(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if svc == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "model not loaded")
			return
		}

		start := time.Now()
		batch, err := svc.Normalize(req)
		if err != nil {
			if engine.IsInvalidInput(err) {
				writeJSONError(w, http.StatusBadRequest, err.Error())
			} else {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
			}
			logPredict(r, http.StatusBadRequest, 0, time.Since(start), err)
			return
		}

		out, err := svc.Infer(r.Context(), batch)
		if err != nil {
			if r.Context().Err() != nil {
				// Client went away; nothing useful to write.
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			logPredict(r, http.StatusInternalServerError, batch.BatchSize(), time.Since(start), err)
			return
		}

		resp := types.PredictResponse{
			PoolerOutput:    out.PoolerOutput,
			LatencyMS:       float64(out.Latency) / float64(time.Millisecond),
			BatchSize:       out.BatchSize,
			TokensProcessed: out.TokensProcessed,
		}
		if req.IncludeEmbeddings {
			resp.Embeddings = out.LastHiddenState
		}
		writeJSON(w, http.StatusOK, resp)
		logPredict(r, http.StatusOK, out.BatchSize, time.Since(start), nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
