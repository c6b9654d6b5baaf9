// Package engine implements the instrumented inference pipeline: model
// lifecycle, input normalization, execution (real or synthetic), and the
// metric samples recorded around every run.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bertd/internal/config"
	"bertd/internal/metrics"
	"bertd/pkg/types"
)

// Status tags the model handle state decided once at load time.
type Status string

const (
	// StatusLoaded means a real session is available.
	StatusLoaded Status = "loaded"
	// StatusUnloaded means no model file was found; the engine serves
	// shape-correct synthetic output for the process lifetime.
	StatusUnloaded Status = "unloaded"
)

const defaultMockDelay = 50 * time.Millisecond

// Engine owns the tokenizer and the model session. It is constructed and
// loaded once at startup and is immutable afterwards, so it may be shared
// across concurrent requests without synchronization.
type Engine struct {
	cfg config.Config
	rec *metrics.Recorder
	log zerolog.Logger

	tokenizer Tokenizer
	session   Session
	status    Status

	mockDelay time.Duration
	mockSeed  int64

	newTokenizer func(id string) (Tokenizer, error)
}

// Option customizes an Engine, mainly for tests injecting fakes.
type Option func(*Engine)

// WithTokenizer injects a tokenizer, skipping hub resolution at Load.
func WithTokenizer(t Tokenizer) Option {
	return func(e *Engine) { e.tokenizer = t }
}

// WithSession injects a ready session and marks the handle loaded.
func WithSession(s Session) Option {
	return func(e *Engine) {
		e.session = s
		e.status = StatusLoaded
	}
}

// WithMockDelay overrides the artificial latency of the synthetic path.
func WithMockDelay(d time.Duration) Option {
	return func(e *Engine) { e.mockDelay = d }
}

// WithMockSeed fixes the filler generator seed for reproducible output.
func WithMockSeed(seed int64) Option {
	return func(e *Engine) { e.mockSeed = seed }
}

// New constructs an Engine. Call Load exactly once before serving.
func New(cfg config.Config, rec *metrics.Recorder, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		rec:          rec,
		log:          log,
		status:       StatusUnloaded,
		mockDelay:    defaultMockDelay,
		mockSeed:     1,
		newTokenizer: loadHubTokenizer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load resolves the tokenizer and opens the model session, in that order.
// Tokenizer failure and a corrupt model file are fatal; a missing model file
// is not: the engine stays unloaded and serves synthetic output. The load
// duration gauge is recorded in every case.
func (e *Engine) Load(ctx context.Context) error {
	start := time.Now()
	defer func() {
		e.rec.SetModelLoadTime(e.cfg.ModelName, time.Since(start).Seconds())
	}()

	if e.tokenizer == nil {
		tok, err := e.newTokenizer(e.cfg.TokenizerID)
		if err != nil {
			return fmt.Errorf("load tokenizer: %w", err)
		}
		e.tokenizer = tok
	}

	if e.session != nil {
		e.status = StatusLoaded
		return nil
	}

	path, err := expandHome(e.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("model path: %w", err)
	}
	if !pathExists(path) {
		e.status = StatusUnloaded
		e.log.Warn().Str("path", path).Msg("model file not found, running in mock mode")
		return nil
	}

	sess, err := openSession(path, sessionOptions{
		Provider:       e.cfg.ExecutionProvider,
		IntraOpThreads: e.cfg.IntraOpThreads,
		InterOpThreads: e.cfg.InterOpThreads,
	})
	if err != nil {
		if IsRuntimeUnavailable(err) {
			e.status = StatusUnloaded
			e.log.Warn().Str("path", path).Err(err).
				Msg("model file present but runtime unavailable, running in mock mode")
			return nil
		}
		// File present but unreadable or incompatible: fatal.
		return fmt.Errorf("load model %s: %w", path, err)
	}
	e.session = sess
	e.status = StatusLoaded
	e.log.Info().
		Str("model", e.cfg.ModelName).
		Str("provider", e.cfg.ExecutionProvider).
		Dur("load_time", time.Since(start)).
		Msg("model loaded")
	return nil
}

// Loaded reports whether a real session backs this engine.
func (e *Engine) Loaded() bool { return e.status == StatusLoaded }

// Metadata describes the served model for GET /v1/models/bert.
func (e *Engine) Metadata() types.ModelMetadata {
	return types.ModelMetadata{
		Name:              e.cfg.ModelName,
		Version:           "1.0",
		Framework:         "onnx",
		ExecutionProvider: e.cfg.ExecutionProvider,
		MaxSequenceLength: e.cfg.MaxSequenceLength,
	}
}

// Close releases the model session at process shutdown.
func (e *Engine) Close() error {
	if e.session != nil {
		return e.session.Close()
	}
	return nil
}
