package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Extraction backend names.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Config struct {
	Port string

	// Auth for the HTTP service.
	APIKey string

	// Extraction backend: "local" or "remote".
	Backend string

	// Local model sidecar.
	ModelCommand string
	ModelPath    string

	// Remote LLM extraction.
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMRPS        float64
	LLMBurst      int

	// Worker pool
	WorkerCount int

	// Batch output
	OutputDir string

	// Run state
	RunTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("NERD_API_KEY"),

		Backend: envOr("NER_BACKEND", BackendLocal),

		ModelCommand: envOr("NER_MODEL_CMD", "python3 -m statement_ner"),
		ModelPath:    envOr("NER_MODEL_PATH", "models/output_ner_model"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMRPS:        envFloat("LLM_RPS", 2),
		LLMBurst:      envInt("LLM_BURST", 1),

		WorkerCount: envInt("WORKER_COUNT", 4),

		OutputDir: os.Getenv("OUTPUT_DIR"),

		RunTTL: envDuration("RUN_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.LLMRPS <= 0 {
		cfg.LLMRPS = 2
	}
	if cfg.LLMBurst <= 0 {
		cfg.LLMBurst = 1
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.ModelCommand == "" {
			return fmt.Errorf("NER_MODEL_CMD is required for the local backend")
		}
		if c.ModelPath == "" {
			return fmt.Errorf("NER_MODEL_PATH is required for the local backend")
		}
	case BackendRemote:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendLocal, BackendRemote)
	}
	return nil
}

// ValidateService extends Validate with the requirements of the HTTP service.
func (c Config) ValidateService() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("NERD_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
