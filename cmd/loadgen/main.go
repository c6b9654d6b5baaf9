package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"bertd/pkg/types"
)

// sampleTexts mirrors the corpus used by the smoke-test harness so runs are
// comparable across tools.
var sampleTexts = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Machine learning models can process natural language effectively.",
	"Kubernetes provides container orchestration at scale.",
	"BERT uses bidirectional training for language understanding.",
	"Cloud computing enables flexible infrastructure deployment.",
	"Neural networks learn patterns from large datasets.",
	"Microservices architecture improves application scalability.",
	"GPU acceleration speeds up deep learning inference.",
}

type result struct {
	ok        bool
	latencyMS float64
	status    int
	err       string
}

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080", "Base URL of the inference service")
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	requests := flag.Int("requests", 100, "Total number of requests to send")
	timeoutSec := flag.Int("timeout", 30, "Per-request timeout in seconds")
	pretokenized := flag.Bool("pretokenized", false, "Send synthetic pre-tokenized tensors instead of text")
	seqLen := flag.Int("seq-len", 128, "Sequence length for pre-tokenized payloads")
	flag.Parse()

	base := strings.TrimRight(*endpoint, "/")
	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	payloads := buildPayloads(*pretokenized, *seqLen)

	fmt.Printf("loadgen: %d requests, concurrency %d, endpoint %s\n", *requests, *concurrency, base)
	start := time.Now()

	jobs := make(chan int)
	results := make(chan result, *requests)
	var wg sync.WaitGroup
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- fire(client, base, payloads[id%len(payloads)])
			}
		}()
	}
	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	elapsed := time.Since(start)
	var latencies []float64
	failures := 0
	for r := range results {
		if r.ok {
			latencies = append(latencies, r.latencyMS)
		} else {
			failures++
			if r.err != "" {
				fmt.Fprintf(os.Stderr, "request failed: status=%d %s\n", r.status, r.err)
			}
		}
	}

	total := len(latencies) + failures
	fmt.Printf("\ncompleted %d requests in %.2fs (%.1f req/s)\n",
		total, elapsed.Seconds(), float64(total)/elapsed.Seconds())
	fmt.Printf("success: %d  failures: %d\n", len(latencies), failures)
	if len(latencies) > 0 {
		s := summarize(latencies)
		fmt.Printf("latency ms: mean=%.1f median=%.1f p95=%.1f p99=%.1f min=%.1f max=%.1f\n",
			s.mean, s.median, s.p95, s.p99, s.min, s.max)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// buildPayloads pre-encodes the request bodies so workers only do I/O.
func buildPayloads(pretokenized bool, seqLen int) [][]byte {
	payloads := make([][]byte, 0, len(sampleTexts))
	for i, text := range sampleTexts {
		var req types.PredictRequest
		if pretokenized {
			req.Inputs = syntheticInputs(i, seqLen)
		} else {
			req.Text = text
		}
		b, err := json.Marshal(req)
		if err != nil {
			panic(err)
		}
		payloads = append(payloads, b)
	}
	return payloads
}

// syntheticInputs fabricates a plausible single-row tokenized batch: a
// run of token ids followed by padding, with a matching attention mask.
func syntheticInputs(variant, seqLen int) *types.PretokenizedInputs {
	real := 8 + (variant*3)%16
	if real > seqLen {
		real = seqLen
	}
	ids := make([]int64, seqLen)
	mask := make([]int64, seqLen)
	for j := 0; j < real; j++ {
		ids[j] = int64(1000 + variant*100 + j)
		mask[j] = 1
	}
	return &types.PretokenizedInputs{
		InputIDs:      [][]int64{ids},
		AttentionMask: [][]int64{mask},
		TokenTypeIDs:  [][]int64{make([]int64, seqLen)},
	}
}

func fire(client *http.Client, base string, payload []byte) result {
	start := time.Now()
	resp, err := client.Post(base+"/v1/models/bert:predict", "application/json", bytes.NewReader(payload))
	if err != nil {
		return result{err: err.Error()}
	}
	defer resp.Body.Close()
	latency := float64(time.Since(start)) / float64(time.Millisecond)
	if resp.StatusCode != http.StatusOK {
		var er types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return result{status: resp.StatusCode, err: er.Error, latencyMS: latency}
	}
	var out types.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return result{status: resp.StatusCode, err: "invalid response body"}
	}
	return result{ok: true, status: resp.StatusCode, latencyMS: latency}
}
