package engine

import "context"

// Session runs a loaded model graph over a tokenized batch. Implementations
// are safe for concurrent use: the graph is read-only after construction.
type Session interface {
	Run(ctx context.Context, batch TokenizedBatch) (SessionOutputs, error)
	Close() error
}

// SessionOutputs holds the raw model outputs. LastHiddenState is always
// present; PoolerOutput is nil when the graph has no pooled output.
type SessionOutputs struct {
	LastHiddenState [][][]float32
	PoolerOutput    [][]float32
}

// sessionOptions configures the execution backend for a real session.
type sessionOptions struct {
	// Provider is the preferred execution provider identifier.
	Provider string
	// DeviceID selects the accelerator device when Provider is CUDA.
	DeviceID int
	// GPUMemLimitBytes caps the CUDA arena. Zero uses the default 4 GiB.
	GPUMemLimitBytes uint64
	IntraOpThreads   int
	InterOpThreads   int
}

const defaultGPUMemLimit = 4 * 1024 * 1024 * 1024
