package types

// PretokenizedInputs carries a batch that was tokenized by the client.
// All three tensors must share the same [batch_size, sequence_length] shape.
type PretokenizedInputs struct {
	// Token ids, one row per sequence.
	InputIDs [][]int64 `json:"input_ids"`
	// 1 for real tokens, 0 for padding.
	AttentionMask [][]int64 `json:"attention_mask"`
	// Segment ids; all zero for single-sentence input.
	TokenTypeIDs [][]int64 `json:"token_type_ids"`
}

// PredictRequest is the payload for POST /v1/models/bert:predict.
// Exactly one input shape is used; when several are present, inputs wins
// over texts, which wins over text.
type PredictRequest struct {
	// Single free-text input.
	// example: Machine learning models can process natural language.
	Text string `json:"text,omitempty" example:"Machine learning models can process natural language."`
	// Batch of free-text inputs. Must be non-empty when present.
	Texts []string `json:"texts,omitempty"`
	// Pre-tokenized tensors, bypassing the server-side tokenizer.
	Inputs *PretokenizedInputs `json:"inputs,omitempty"`
	// Return the full per-token embeddings (large: batch x seq_len x hidden).
	// example: false
	IncludeEmbeddings bool `json:"include_embeddings,omitempty" example:"false"`
}

// PredictResponse is the success payload for POST /v1/models/bert:predict.
type PredictResponse struct {
	// Per-token embeddings, only present when include_embeddings was set.
	Embeddings [][][]float32 `json:"embeddings,omitempty"`
	// One pooled vector per input sequence.
	PoolerOutput [][]float32 `json:"pooler_output,omitempty"`
	// Wall-clock model execution time in milliseconds.
	// example: 48.2
	LatencyMS float64 `json:"latency_ms" example:"48.2"`
	// Number of sequences in the batch.
	// example: 1
	BatchSize int `json:"batch_size" example:"1"`
	// Sum of attention-mask entries across the batch.
	// example: 12
	TokensProcessed int `json:"tokens_processed" example:"12"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// False while serving synthetic output (no model file loaded).
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
}

// ModelMetadata is returned by GET /v1/models/bert.
type ModelMetadata struct {
	// example: bert-base-uncased
	Name string `json:"name" example:"bert-base-uncased"`
	// example: 1.0
	Version string `json:"version" example:"1.0"`
	// example: onnx
	Framework string `json:"framework" example:"onnx"`
	// example: CUDAExecutionProvider
	ExecutionProvider string `json:"execution_provider" example:"CUDAExecutionProvider"`
	// example: 512
	MaxSequenceLength int `json:"max_sequence_length" example:"512"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no input provided: expected text, texts, or inputs
	Error string `json:"error" example:"no input provided: expected text, texts, or inputs"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
