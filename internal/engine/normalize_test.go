package engine

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"bertd/internal/config"
	"bertd/internal/metrics"
	"bertd/pkg/types"
)

// wordTokenizer assigns one id per whitespace-separated word.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	ids := make([]int, len(words))
	for i := range words {
		ids[i] = 100 + i
	}
	return ids
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ModelName = "bert-test"
	cfg.MaxSequenceLength = 8
	cfg.HiddenSize = 4
	return cfg
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *metrics.Recorder) {
	t.Helper()
	rec := metrics.NewRecorder()
	opts = append([]Option{WithTokenizer(wordTokenizer{}), WithMockDelay(0)}, opts...)
	return New(testConfig(), rec, zerolog.Nop(), opts...), rec
}

func TestNormalizeSingleText(t *testing.T) {
	e, _ := newTestEngine(t)
	b, err := e.Normalize(types.PredictRequest{Text: "hello world"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.BatchSize() != 1 {
		t.Fatalf("batch size=%d", b.BatchSize())
	}
	if b.SeqLen() != 8 {
		t.Fatalf("seq len=%d, want padded to max", b.SeqLen())
	}
	if got := b.TokensProcessed(); got != 2 {
		t.Fatalf("tokens=%d, want 2", got)
	}
	// Padding region: pad id and zero mask.
	for j := 2; j < 8; j++ {
		if b.InputIDs[0][j] != padTokenID || b.AttentionMask[0][j] != 0 {
			t.Fatalf("padding broken at col %d: id=%d mask=%d", j, b.InputIDs[0][j], b.AttentionMask[0][j])
		}
	}
	for j := 0; j < 8; j++ {
		if b.TokenTypeIDs[0][j] != 0 {
			t.Fatalf("token_type_ids must be zero, got %d at col %d", b.TokenTypeIDs[0][j], j)
		}
	}
}

func TestNormalizeBatchTexts(t *testing.T) {
	e, _ := newTestEngine(t)
	b, err := e.Normalize(types.PredictRequest{Texts: []string{"a", "b b", "c c c"}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.BatchSize() != 3 {
		t.Fatalf("batch size=%d", b.BatchSize())
	}
	if got := b.TokensProcessed(); got != 6 {
		t.Fatalf("tokens=%d, want 6", got)
	}
}

func TestNormalizeTruncatesLongText(t *testing.T) {
	e, _ := newTestEngine(t)
	long := strings.Repeat("w ", 20)
	b, err := e.Normalize(types.PredictRequest{Text: long})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.SeqLen() != 8 {
		t.Fatalf("seq len=%d", b.SeqLen())
	}
	if got := b.TokensProcessed(); got != 8 {
		t.Fatalf("tokens=%d, want truncated to max", got)
	}
}

func TestNormalizeEmptyTextsRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Normalize(types.PredictRequest{Texts: []string{}})
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNormalizeNoInputRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Normalize(types.PredictRequest{})
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNormalizePretokenizedWinsOverText(t *testing.T) {
	e, _ := newTestEngine(t)
	req := types.PredictRequest{
		Text: "ignored entirely",
		Inputs: &types.PretokenizedInputs{
			InputIDs:      [][]int64{{1, 2, 3}},
			AttentionMask: [][]int64{{1, 1, 0}},
			TokenTypeIDs:  [][]int64{{0, 0, 0}},
		},
	}
	b, err := e.Normalize(req)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.SeqLen() != 3 {
		t.Fatalf("seq len=%d, want the pre-tokenized width", b.SeqLen())
	}
	if got := b.TokensProcessed(); got != 2 {
		t.Fatalf("tokens=%d", got)
	}
}

func TestNormalizeTextsWinOverText(t *testing.T) {
	e, _ := newTestEngine(t)
	b, err := e.Normalize(types.PredictRequest{Text: "one", Texts: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if b.BatchSize() != 2 {
		t.Fatalf("batch size=%d, want texts to win", b.BatchSize())
	}
}

func TestNormalizePretokenizedValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	cases := []struct {
		name   string
		inputs types.PretokenizedInputs
	}{
		{"empty", types.PretokenizedInputs{}},
		{"ragged rows", types.PretokenizedInputs{
			InputIDs:      [][]int64{{1, 2}, {1}},
			AttentionMask: [][]int64{{1, 1}, {1, 1}},
			TokenTypeIDs:  [][]int64{{0, 0}, {0, 0}},
		}},
		{"row count mismatch", types.PretokenizedInputs{
			InputIDs:      [][]int64{{1, 2}},
			AttentionMask: [][]int64{{1, 1}, {1, 1}},
			TokenTypeIDs:  [][]int64{{0, 0}},
		}},
		{"mask not binary", types.PretokenizedInputs{
			InputIDs:      [][]int64{{1, 2}},
			AttentionMask: [][]int64{{1, 2}},
			TokenTypeIDs:  [][]int64{{0, 0}},
		}},
		{"over max sequence length", types.PretokenizedInputs{
			InputIDs:      [][]int64{{1, 2, 3, 4, 5, 6, 7, 8, 9}},
			AttentionMask: [][]int64{{1, 1, 1, 1, 1, 1, 1, 1, 1}},
			TokenTypeIDs:  [][]int64{{0, 0, 0, 0, 0, 0, 0, 0, 0}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inputs := tc.inputs
			_, err := e.Normalize(types.PredictRequest{Inputs: &inputs})
			if err == nil || !IsInvalidInput(err) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
