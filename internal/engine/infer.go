package engine

import (
	"context"
	"time"

	"bertd/internal/metrics"
)

// Outcome is the result of one executor run.
type Outcome struct {
	LastHiddenState [][][]float32
	PoolerOutput    [][]float32
	// Latency is the wall-clock time strictly around model execution;
	// tokenization time is excluded.
	Latency         time.Duration
	BatchSize       int
	TokensProcessed int
}

// Infer executes one tokenized batch, real or synthetic depending on the
// handle status. The active-requests gauge is incremented on entry and the
// decrement is deferred, so it runs on every exit path. Batch size and token
// count are computed before execution so they are known even when the run
// fails. Errors are recorded as an error-outcome sample and propagated
// unchanged.
func (e *Engine) Infer(ctx context.Context, batch TokenizedBatch) (Outcome, error) {
	model := e.cfg.ModelName
	e.rec.IncActive(model)
	defer e.rec.DecActive(model)

	batchSize := batch.BatchSize()
	tokens := batch.TokensProcessed()

	start := time.Now()
	var out SessionOutputs
	var err error
	if e.status == StatusLoaded {
		out, err = e.session.Run(ctx, batch)
	} else {
		out, err = e.mockRun(ctx, batchSize)
	}
	latency := time.Since(start)

	if err != nil {
		e.rec.IncRequest(model, metrics.StatusError)
		return Outcome{}, err
	}

	e.rec.IncRequest(model, metrics.StatusSuccess)
	e.rec.ObserveLatency(model, latency.Seconds())
	e.rec.AddTokens(model, tokens)
	e.rec.ObserveBatchSize(model, batchSize)

	return Outcome{
		LastHiddenState: out.LastHiddenState,
		PoolerOutput:    out.PoolerOutput,
		Latency:         latency,
		BatchSize:       batchSize,
		TokensProcessed: tokens,
	}, nil
}
