package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bertd/internal/config"
	"bertd/internal/engine"
	"bertd/internal/httpapi"
	"bertd/internal/metrics"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("BERTD_ADDR"); v != "" {
		defaultAddr = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	modelPath := flag.String("model-path", "", "Path to the serialized ONNX model graph (overrides MODEL_PATH)")
	configPath := flag.String("config", "", "Optional config file (.yaml/.json/.toml)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config file")
		}
		cfg = config.Merge(fileCfg, cfg)
	}
	config.ApplyEnv(&cfg)
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	rec := metrics.NewRecorder()
	eng := engine.New(cfg, rec, log)
	if err := eng.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize inference engine")
	}
	defer func() { _ = eng.Close() }()

	httpapi.SetLogger(log)
	mux := httpapi.NewMux(eng, rec)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("model", cfg.ModelName).
			Bool("model_loaded", eng.Loaded()).
			Msg("bertd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}
