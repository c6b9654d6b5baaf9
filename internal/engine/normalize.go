package engine

import "bertd/pkg/types"

// Normalize converts a request into the canonical tokenized batch. Exactly
// one input shape is consumed; when several are present, pre-tokenized
// inputs win over texts, which win over text. Pre-tokenized batches are
// validated against the shape invariants, including the configured maximum
// sequence length.
func (e *Engine) Normalize(req types.PredictRequest) (TokenizedBatch, error) {
	switch {
	case req.Inputs != nil:
		b := TokenizedBatch{
			InputIDs:      req.Inputs.InputIDs,
			AttentionMask: req.Inputs.AttentionMask,
			TokenTypeIDs:  req.Inputs.TokenTypeIDs,
		}
		if err := b.validate(e.cfg.MaxSequenceLength); err != nil {
			return TokenizedBatch{}, err
		}
		return b, nil
	case req.Texts != nil:
		if len(req.Texts) == 0 {
			return TokenizedBatch{}, ErrInvalidInput("texts must not be empty")
		}
		return e.tokenize(req.Texts), nil
	case req.Text != "":
		return e.tokenize([]string{req.Text}), nil
	}
	return TokenizedBatch{}, ErrInvalidInput("no input provided: expected text, texts, or inputs")
}

// tokenize encodes texts with truncation and padding to the configured
// maximum sequence length. Attention mask is 1 for real tokens and 0 for
// padding; token type ids are zero (single segment).
func (e *Engine) tokenize(texts []string) TokenizedBatch {
	maxLen := e.cfg.MaxSequenceLength
	b := TokenizedBatch{
		InputIDs:      make([][]int64, len(texts)),
		AttentionMask: make([][]int64, len(texts)),
		TokenTypeIDs:  make([][]int64, len(texts)),
	}
	for i, text := range texts {
		ids := e.tokenizer.Encode(text)
		if len(ids) > maxLen {
			ids = ids[:maxLen]
		}
		row := make([]int64, maxLen)
		mask := make([]int64, maxLen)
		for j, id := range ids {
			row[j] = int64(id)
			mask[j] = 1
		}
		for j := len(ids); j < maxLen; j++ {
			row[j] = padTokenID
		}
		b.InputIDs[i] = row
		b.AttentionMask[i] = mask
		b.TokenTypeIDs[i] = make([]int64, maxLen)
	}
	return b
}
