package engine

import (
	"fmt"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/gomlx/go-huggingface/tokenizers"
)

// padTokenID is the BERT wordpiece [PAD] id.
const padTokenID = 0

// Tokenizer converts free text into token ids. The engine only needs
// encoding; padding, truncation and mask construction happen in the
// normalizer.
type Tokenizer interface {
	Encode(text string) []int
}

// hubTokenizer adapts the HuggingFace hub tokenizer to the engine interface.
type hubTokenizer struct {
	tok tokenizers.Tokenizer
}

func (h hubTokenizer) Encode(text string) []int { return h.tok.Encode(text) }

// loadHubTokenizer resolves a tokenizer by its fixed HuggingFace repository
// id, downloading (or reusing the cached copy of) its vocabulary. Failure
// here is fatal: the service cannot start without a tokenizer.
func loadHubTokenizer(id string) (Tokenizer, error) {
	repo := hub.New(id)
	tok, err := tokenizers.New(repo)
	if err != nil {
		return nil, fmt.Errorf("resolve tokenizer %q: %w", id, err)
	}
	return hubTokenizer{tok: tok}, nil
}
