package engine

import "fmt"

// TokenizedBatch is the canonical integer-tensor form of a request, ready
// for model execution. All three tensors share the same
// [batch_size, sequence_length] shape.
type TokenizedBatch struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
	TokenTypeIDs  [][]int64
}

// BatchSize returns the number of sequences in the batch.
func (b TokenizedBatch) BatchSize() int { return len(b.InputIDs) }

// SeqLen returns the per-row sequence length.
func (b TokenizedBatch) SeqLen() int {
	if len(b.InputIDs) == 0 {
		return 0
	}
	return len(b.InputIDs[0])
}

// TokensProcessed is the sum of attention-mask entries across the batch,
// i.e. the number of non-padding tokens.
func (b TokenizedBatch) TokensProcessed() int {
	n := 0
	for _, row := range b.AttentionMask {
		for _, v := range row {
			n += int(v)
		}
	}
	return n
}

// validate checks the tensor-shape invariants for client-supplied batches:
// non-empty, rectangular, identical shapes across the three tensors, mask
// entries 0/1 only, and sequence length within maxSeqLen.
func (b TokenizedBatch) validate(maxSeqLen int) error {
	rows := len(b.InputIDs)
	if rows == 0 {
		return ErrInvalidInput("inputs.input_ids must not be empty")
	}
	if len(b.AttentionMask) != rows || len(b.TokenTypeIDs) != rows {
		return ErrInvalidInput("inputs tensors must have the same number of rows")
	}
	seqLen := len(b.InputIDs[0])
	if seqLen == 0 {
		return ErrInvalidInput("inputs rows must not be empty")
	}
	if seqLen > maxSeqLen {
		return ErrInvalidInput(fmt.Sprintf("sequence length %d exceeds maximum %d", seqLen, maxSeqLen))
	}
	for i := 0; i < rows; i++ {
		if len(b.InputIDs[i]) != seqLen || len(b.AttentionMask[i]) != seqLen || len(b.TokenTypeIDs[i]) != seqLen {
			return ErrInvalidInput("inputs tensors must be rectangular with identical shapes")
		}
		for _, v := range b.AttentionMask[i] {
			if v != 0 && v != 1 {
				return ErrInvalidInput("attention_mask entries must be 0 or 1")
			}
		}
	}
	return nil
}
