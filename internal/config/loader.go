package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Execution provider identifiers, matching ONNX Runtime naming.
const (
	ProviderCUDA = "CUDAExecutionProvider"
	ProviderCPU  = "CPUExecutionProvider"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Default values.
type Config struct {
	Addr              string `json:"addr" yaml:"addr" toml:"addr"`
	ModelPath         string `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelName         string `json:"model_name" yaml:"model_name" toml:"model_name"`
	TokenizerID       string `json:"tokenizer_id" yaml:"tokenizer_id" toml:"tokenizer_id"`
	MaxSequenceLength int    `json:"max_sequence_length" yaml:"max_sequence_length" toml:"max_sequence_length"`
	HiddenSize        int    `json:"hidden_size" yaml:"hidden_size" toml:"hidden_size"`
	ExecutionProvider string `json:"execution_provider" yaml:"execution_provider" toml:"execution_provider"`
	IntraOpThreads    int    `json:"intra_op_threads" yaml:"intra_op_threads" toml:"intra_op_threads"`
	InterOpThreads    int    `json:"inter_op_threads" yaml:"inter_op_threads" toml:"inter_op_threads"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ModelPath:         "/models/bert-base-uncased/model.onnx",
		ModelName:         "bert-base-uncased",
		TokenizerID:       "google-bert/bert-base-uncased",
		MaxSequenceLength: 512,
		HiddenSize:        768,
		ExecutionProvider: ProviderCUDA,
		IntraOpThreads:    4,
		InterOpThreads:    2,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from the process environment. Variables are
// read once at startup; the resulting config is immutable afterwards.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		_, port := splitAddr(cfg.Addr)
		cfg.Addr = v + ":" + port
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		host, _ := splitAddr(cfg.Addr)
		cfg.Addr = host + ":" + v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.ModelName = v
	}
	if v := os.Getenv("TOKENIZER_ID"); v != "" {
		cfg.TokenizerID = v
	}
	if v := envInt("MAX_SEQUENCE_LENGTH"); v > 0 {
		cfg.MaxSequenceLength = v
	}
	if v := envInt("HIDDEN_SIZE"); v > 0 {
		cfg.HiddenSize = v
	}
	if v := os.Getenv("ONNX_EXECUTION_PROVIDER"); v != "" {
		cfg.ExecutionProvider = v
	}
	if v := envInt("ONNX_INTRA_OP_THREADS"); v > 0 {
		cfg.IntraOpThreads = v
	}
	if v := envInt("ONNX_INTER_OP_THREADS"); v > 0 {
		cfg.InterOpThreads = v
	}
}

// Merge fills zero-valued fields of cfg from the fallback config.
func Merge(cfg, fallback Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = fallback.Addr
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = fallback.ModelPath
	}
	if cfg.ModelName == "" {
		cfg.ModelName = fallback.ModelName
	}
	if cfg.TokenizerID == "" {
		cfg.TokenizerID = fallback.TokenizerID
	}
	if cfg.MaxSequenceLength == 0 {
		cfg.MaxSequenceLength = fallback.MaxSequenceLength
	}
	if cfg.HiddenSize == 0 {
		cfg.HiddenSize = fallback.HiddenSize
	}
	if cfg.ExecutionProvider == "" {
		cfg.ExecutionProvider = fallback.ExecutionProvider
	}
	if cfg.IntraOpThreads == 0 {
		cfg.IntraOpThreads = fallback.IntraOpThreads
	}
	if cfg.InterOpThreads == 0 {
		cfg.InterOpThreads = fallback.InterOpThreads
	}
	return cfg
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// splitAddr splits "host:port" tolerating a missing host (":8080").
func splitAddr(addr string) (host, port string) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, "8080"
	}
	return addr[:i], addr[i+1:]
}
