package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildRootCmd constructs the Cobra command tree for the smoke-test client.
func buildRootCmd() *cobra.Command {
	var endpoint string
	var timeoutSec int

	root := &cobra.Command{
		Use:           "bertctl",
		Short:         "Smoke-test client for the bertd inference service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "Base URL of the inference service")
	root.PersistentFlags().IntVar(&timeoutSec, "timeout", 30, "Request timeout in seconds")

	newClient := func() *client {
		return newClientWith(endpoint, timeoutSec)
	}

	healthCmd := &cobra.Command{
		Use:     "health",
		Short:   "Check service health",
		Example: "  bertctl health --endpoint http://localhost:8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newClient().health()
			if err != nil {
				return err
			}
			fmt.Printf("status=%s model_loaded=%v\n", h.Status, h.ModelLoaded)
			return nil
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print model metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := newClient().modelInfo()
			if err != nil {
				return err
			}
			fmt.Printf("name=%s version=%s framework=%s provider=%s max_seq_len=%d\n",
				md.Name, md.Version, md.Framework, md.ExecutionProvider, md.MaxSequenceLength)
			return nil
		},
	}

	var texts string
	var includeEmbeddings bool
	predictCmd := &cobra.Command{
		Use:     "predict [text]",
		Short:   "Run an inference request",
		Example: "  bertctl predict \"The quick brown fox\"\n  bertctl predict --texts \"a,b,c\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			var single string
			if len(args) > 0 {
				single = strings.Join(args, " ")
			}
			batch := splitCSV(texts)
			if single == "" && len(batch) == 0 {
				return fmt.Errorf("provide a text argument or --texts")
			}
			resp, err := newClient().predict(single, batch, includeEmbeddings)
			if err != nil {
				return err
			}
			fmt.Printf("batch_size=%d tokens_processed=%d latency_ms=%.1f pooler_rows=%d\n",
				resp.BatchSize, resp.TokensProcessed, resp.LatencyMS, len(resp.PoolerOutput))
			if includeEmbeddings {
				fmt.Printf("embedding_rows=%d\n", len(resp.Embeddings))
			}
			return nil
		},
	}
	predictCmd.Flags().StringVar(&texts, "texts", "", "Comma-separated batch of texts")
	predictCmd.Flags().BoolVar(&includeEmbeddings, "include-embeddings", false, "Request full per-token embeddings")

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the inference metric samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newClient().metrics()
			if err != nil {
				return err
			}
			for _, line := range strings.Split(body, "\n") {
				if strings.HasPrefix(line, "inference_") {
					fmt.Println(line)
				}
			}
			return nil
		},
	}

	root.AddCommand(healthCmd, infoCmd, predictCmd, metricsCmd)
	return root
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty items.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
