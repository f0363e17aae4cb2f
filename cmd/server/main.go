package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/papertrans/internal/api"
	"github.com/dgallion1/papertrans/internal/config"
	"github.com/dgallion1/papertrans/internal/llm"
	"github.com/dgallion1/papertrans/internal/logging"
	"github.com/dgallion1/papertrans/internal/pipeline"
	"github.com/dgallion1/papertrans/internal/store"
)

func main() {
	cfg := config.Load()

	log, closeLog := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	st, err := store.Open(ctx, store.Options{
		Backend: cfg.StoreBackend,
		Dir:     cfg.StoreDir,
		MinIO: store.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		},
	})
	if err != nil {
		log.Error("open result store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	stats := llm.NewLLMStats(time.Hour)
	client := llm.NewClient(llm.ClientConfig{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, stats)
	tr := llm.NewTranslator(client, llm.TranslatorOptions{
		Language: cfg.TargetLanguage,
		MaxTurns: cfg.HistoryTurns,
	})

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, tr, st, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting papertrans",
		"port", cfg.Port,
		"model", cfg.LLMModel,
		"language", cfg.TargetLanguage,
		"store", cfg.StoreBackend,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}
