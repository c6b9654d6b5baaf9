package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels for the request counter.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder owns the inference metric samples and the registry they live in.
// Counters and histograms accumulate for the process lifetime; gauges are
// overwritten in place. All updates are atomic per sample.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensProcessed *prometheus.CounterVec
	batchSize       *prometheus.HistogramVec
	modelLoadTime   *prometheus.GaugeVec
	activeRequests  *prometheus.GaugeVec

	// Reserved for a future admission-control layer; declared so the
	// exposition surface is stable, never updated by the executor.
	gpuMemoryBytes *prometheus.GaugeVec
	queueSize      *prometheus.GaugeVec
}

// NewRecorder builds a Recorder with all samples registered on a private
// registry, so multiple recorders can coexist in one process (tests).
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inference",
			Name:      "requests_total",
			Help:      "Total number of inference requests",
		},
		[]string{"status", "model"},
	)
	r.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inference",
			Name:      "request_duration_seconds",
			Help:      "Inference request latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"model"},
	)
	r.tokensProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inference",
			Name:      "tokens_processed_total",
			Help:      "Total number of tokens processed",
		},
		[]string{"model"},
	)
	r.batchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inference",
			Name:      "batch_size",
			Help:      "Distribution of batch sizes",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"model"},
	)
	r.modelLoadTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inference",
			Name:      "model_load_seconds",
			Help:      "Time taken to load the model",
		},
		[]string{"model"},
	)
	r.activeRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inference",
			Name:      "active_requests",
			Help:      "Number of currently active inference requests",
		},
		[]string{"model"},
	)
	r.gpuMemoryBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inference",
			Name:      "gpu_memory_bytes",
			Help:      "GPU memory used by the model",
		},
		[]string{"model", "device"},
	)
	r.queueSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inference",
			Name:      "queue_size",
			Help:      "Number of requests waiting in queue",
		},
		[]string{"model"},
	)

	r.registry.MustRegister(
		r.requestsTotal,
		r.requestDuration,
		r.tokensProcessed,
		r.batchSize,
		r.modelLoadTime,
		r.activeRequests,
		r.gpuMemoryBytes,
		r.queueSize,
	)
	return r
}

// IncRequest counts one finished request with the given outcome status.
func (r *Recorder) IncRequest(model, status string) {
	r.requestsTotal.WithLabelValues(status, model).Inc()
}

// ObserveLatency records one request latency sample in seconds.
func (r *Recorder) ObserveLatency(model string, seconds float64) {
	r.requestDuration.WithLabelValues(model).Observe(seconds)
}

// AddTokens adds to the processed-token counter.
func (r *Recorder) AddTokens(model string, n int) {
	r.tokensProcessed.WithLabelValues(model).Add(float64(n))
}

// ObserveBatchSize records one batch-size sample.
func (r *Recorder) ObserveBatchSize(model string, n int) {
	r.batchSize.WithLabelValues(model).Observe(float64(n))
}

// SetModelLoadTime records the startup load duration in seconds.
func (r *Recorder) SetModelLoadTime(model string, seconds float64) {
	r.modelLoadTime.WithLabelValues(model).Set(seconds)
}

// IncActive marks one request as in flight.
func (r *Recorder) IncActive(model string) {
	r.activeRequests.WithLabelValues(model).Inc()
}

// DecActive marks one in-flight request as finished.
func (r *Recorder) DecActive(model string) {
	r.activeRequests.WithLabelValues(model).Dec()
}

// SetGPUMemory updates the reserved GPU memory gauge.
func (r *Recorder) SetGPUMemory(model, device string, bytes float64) {
	r.gpuMemoryBytes.WithLabelValues(model, device).Set(bytes)
}

// SetQueueSize updates the reserved queue-size gauge.
func (r *Recorder) SetQueueSize(model string, n int) {
	r.queueSize.WithLabelValues(model).Set(float64(n))
}

// ActiveRequests returns the current value of the active-requests gauge.
func (r *Recorder) ActiveRequests(model string) float64 {
	g, err := r.activeRequests.GetMetricWithLabelValues(model)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// Registry exposes the underlying registry for additional collectors
// (e.g., HTTP transport metrics).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the text exposition handler for GET /metrics. Reads are
// idempotent and have no side effects on the samples.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
