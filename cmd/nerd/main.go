package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sanchay-T/NER/internal/api"
	"github.com/Sanchay-T/NER/internal/config"
	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/pipeline"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateService(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extractor, stats, err := buildExtractor(ctx, cfg, log)
	if err != nil {
		log.Error("backend startup failed", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}

	p := pipeline.NewDocumentPipeline(extractor, log)
	orch := pipeline.NewBatchOrchestrator(p, cfg.WorkerCount, log)
	srv := api.NewServer(orch, stats, log, cfg)

	// Evict settled runs past their TTL.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.Runs().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting nerd", "port", cfg.Port, "backend", cfg.Backend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildExtractor wires the configured backend. The returned stats are non-nil
// only for the remote backend.
func buildExtractor(ctx context.Context, cfg config.Config, log *slog.Logger) (extract.Extractor, *extract.CallStats, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		llm := extract.NewRemoteLLM(extract.RemoteConfig{
			APIKey:            cfg.OpenAIAPIKey,
			Model:             cfg.OpenAIModel,
			BaseURL:           cfg.OpenAIBaseURL,
			RequestsPerSecond: cfg.LLMRPS,
			Burst:             cfg.LLMBurst,
		}, log)
		return llm, llm.Stats, nil
	default:
		model, err := extract.NewLocalModel(cfg.ModelCommand, cfg.ModelPath, log)
		if err != nil {
			return nil, nil, err
		}
		warmupCtx, warmupCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer warmupCancel()
		if err := model.Warmup(warmupCtx); err != nil {
			return nil, nil, err
		}
		return model, nil, nil
	}
}
