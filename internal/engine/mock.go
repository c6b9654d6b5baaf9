package engine

import (
	"context"
	"math/rand"
	"time"
)

// mockRun synthesizes output of the exact shape a loaded session would
// produce: [batch, maxSeqLen, hidden] token embeddings and [batch, hidden]
// pooled output. The filler values are statistically irrelevant; the seeded
// generator only makes runs reproducible. The artificial delay approximates
// real execution latency so downstream consumers and load tests observe
// realistic timing.
func (e *Engine) mockRun(ctx context.Context, batchSize int) (SessionOutputs, error) {
	if e.mockDelay > 0 {
		t := time.NewTimer(e.mockDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return SessionOutputs{}, ctx.Err()
		}
	}

	seqLen := e.cfg.MaxSequenceLength
	hidden := e.cfg.HiddenSize
	rng := rand.New(rand.NewSource(e.mockSeed))

	out := SessionOutputs{
		LastHiddenState: make([][][]float32, batchSize),
		PoolerOutput:    make([][]float32, batchSize),
	}
	for i := 0; i < batchSize; i++ {
		rows := make([][]float32, seqLen)
		for j := 0; j < seqLen; j++ {
			row := make([]float32, hidden)
			for k := range row {
				row[k] = float32(rng.NormFloat64())
			}
			rows[j] = row
		}
		out.LastHiddenState[i] = rows

		pooled := make([]float32, hidden)
		for k := range pooled {
			pooled[k] = float32(rng.NormFloat64())
		}
		out.PoolerOutput[i] = pooled
	}
	return out, nil
}
