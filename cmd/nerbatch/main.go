package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sanchay-T/NER/internal/config"
	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/pipeline"
	"github.com/Sanchay-T/NER/internal/report"
)

func main() {
	dir := flag.String("dir", "", "root folder of bank statement subfolders (required)")
	out := flag.String("out", "", "output folder for artifacts (default <dir>/../processing_results)")
	backend := flag.String("backend", "", "extraction backend: local or remote (overrides NER_BACKEND)")
	workers := flag.Int("workers", 0, "worker pool size (overrides WORKER_COUNT)")
	flag.Parse()

	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *dir == "" {
		log.Error("missing required -dir flag")
		os.Exit(1)
	}

	cfg := config.Load()
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	outputDir := *out
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "processing_results")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor, _, err := buildExtractor(ctx, cfg, log)
	if err != nil {
		// The only fatal path: a backend that cannot start. Per-document
		// failures later never abort the batch.
		log.Error("backend startup failed", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}

	p := pipeline.NewDocumentPipeline(extractor, log)
	orch := pipeline.NewBatchOrchestrator(p, cfg.WorkerCount, log)

	result, err := orch.Run(ctx, *dir)
	if err != nil {
		log.Error("batch failed", "root", *dir, "error", err)
		os.Exit(1)
	}

	summary := report.Summarize(result.Documents, result.Skipped)
	if err := report.WriteAll(outputDir, result, summary); err != nil {
		log.Error("writing artifacts failed", "dir", outputDir, "error", err)
		os.Exit(1)
	}

	log.Info("batch summary",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"high_confidence", len(summary.HighConfidence),
		"low_confidence", len(summary.LowConfidence),
		"output", outputDir,
	)
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
		warmupCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := model.Warmup(warmupCtx); err != nil {
			return nil, nil, err
		}
		return model, nil, nil
	}
}
