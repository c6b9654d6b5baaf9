//go:build ort

package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"bertd/internal/config"
)

// ortBuilt indicates this binary was compiled with the real ONNX runtime.
var ortBuilt = true

var ortInitOnce sync.Once
var ortInitErr error

// initRuntime initializes the shared ONNX runtime environment once per
// process. Teardown is left to process exit.
func initRuntime() error {
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ortSession wraps a DynamicAdvancedSession with the input/output names
// discovered from the model graph.
type ortSession struct {
	sess        *ort.DynamicAdvancedSession
	outputNames []string
	hasPooler   bool
}

// openSession constructs a real ONNX Runtime session at the given path.
// Backend fallback order: when the preferred provider is CUDA, the CUDA
// provider is configured with explicit resource bounds and CPU is appended
// as fallback; otherwise CPU-only is used directly. The path is known to
// exist by the time this is called, so any error here means a corrupt or
// incompatible graph and is fatal to startup.
func openSession(path string, opts sessionOptions) (Session, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer so.Destroy()

	if err := so.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, err
	}
	if opts.IntraOpThreads > 0 {
		if err := so.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, err
		}
	}
	if opts.InterOpThreads > 0 {
		if err := so.SetInterOpNumThreads(opts.InterOpThreads); err != nil {
			return nil, err
		}
	}

	if opts.Provider == config.ProviderCUDA {
		memLimit := opts.GPUMemLimitBytes
		if memLimit == 0 {
			memLimit = defaultGPUMemLimit
		}
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("cuda provider options: %w", err)
		}
		defer cudaOpts.Destroy()
		err = cudaOpts.Update(map[string]string{
			"device_id":              strconv.Itoa(opts.DeviceID),
			"arena_extend_strategy":  "kNextPowerOfTwo",
			"gpu_mem_limit":          strconv.FormatUint(memLimit, 10),
			"cudnn_conv_algo_search": "EXHAUSTIVE",
		})
		if err != nil {
			return nil, fmt.Errorf("cuda provider options: %w", err)
		}
		// CPU remains the implicit fallback provider after CUDA.
		if err := so.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("append cuda provider: %w", err)
		}
	}

	_, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect model graph: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model graph has no outputs")
	}
	outputNames := []string{outputs[0].Name}
	hasPooler := false
	if len(outputs) > 1 {
		outputNames = append(outputNames, outputs[1].Name)
		hasPooler = true
	}

	sess, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		outputNames,
		so,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &ortSession{sess: sess, outputNames: outputNames, hasPooler: hasPooler}, nil
}

func (s *ortSession) Run(ctx context.Context, batch TokenizedBatch) (SessionOutputs, error) {
	if err := ctx.Err(); err != nil {
		return SessionOutputs{}, err
	}
	rows := int64(batch.BatchSize())
	cols := int64(batch.SeqLen())
	shape := ort.NewShape(rows, cols)

	ids, err := ort.NewTensor(shape, flatten(batch.InputIDs))
	if err != nil {
		return SessionOutputs{}, err
	}
	defer ids.Destroy()
	mask, err := ort.NewTensor(shape, flatten(batch.AttentionMask))
	if err != nil {
		return SessionOutputs{}, err
	}
	defer mask.Destroy()
	segs, err := ort.NewTensor(shape, flatten(batch.TokenTypeIDs))
	if err != nil {
		return SessionOutputs{}, err
	}
	defer segs.Destroy()

	outputs := make([]ort.Value, len(s.outputNames))
	if err := s.sess.Run([]ort.Value{ids, mask, segs}, outputs); err != nil {
		return SessionOutputs{}, fmt.Errorf("session run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return SessionOutputs{}, fmt.Errorf("unexpected type for output %s", s.outputNames[0])
	}
	hshape := hidden.GetShape()
	if len(hshape) != 3 {
		return SessionOutputs{}, fmt.Errorf("unexpected shape for output %s: %v", s.outputNames[0], hshape)
	}
	out := SessionOutputs{
		LastHiddenState: reshape3(hidden.GetData(), int(hshape[0]), int(hshape[1]), int(hshape[2])),
	}
	if s.hasPooler {
		pooled, ok := outputs[1].(*ort.Tensor[float32])
		if !ok {
			return SessionOutputs{}, fmt.Errorf("unexpected type for output %s", s.outputNames[1])
		}
		pshape := pooled.GetShape()
		if len(pshape) != 2 {
			return SessionOutputs{}, fmt.Errorf("unexpected shape for output %s: %v", s.outputNames[1], pshape)
		}
		out.PoolerOutput = reshape2(pooled.GetData(), int(pshape[0]), int(pshape[1]))
	}
	return out, nil
}

func (s *ortSession) Close() error {
	if s.sess != nil {
		s.sess.Destroy()
		s.sess = nil
	}
	return nil
}

func flatten(rows [][]int64) []int64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]int64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

func reshape2(data []float32, rows, cols int) [][]float32 {
	out := make([][]float32, rows)
	for i := range out {
		out[i] = data[i*cols : (i+1)*cols]
	}
	return out
}

func reshape3(data []float32, rows, cols, depth int) [][][]float32 {
	out := make([][][]float32, rows)
	for i := range out {
		out[i] = reshape2(data[i*cols*depth:(i+1)*cols*depth], cols, depth)
	}
	return out
}
