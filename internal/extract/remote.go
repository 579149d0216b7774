package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	systemPrompt = "You are a precise bank statement information extractor. " +
		"Extract ONLY the account number and account holder name from bank statements. " +
		"Return ONLY a JSON object with exactly these fields: account_number and name."

	userPromptHeader = "Extract ONLY the account number and account holder name from this text.\n" +
		"Return ONLY a JSON object like this: {\"account_number\": \"number\", \"name\": \"holder name\"}\n\nText:\n"
)

// RemoteConfig configures the remote LLM backend.
type RemoteConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	RequestsPerSecond float64
	Burst             int
}

// RemoteLLM extracts entities by prompting an OpenAI-compatible
// chat/completions endpoint. The response carries no character offsets;
// Resolve populates them afterwards. Calls are rate-limited and transient
// failures surface as RetryableError for the pipeline's backoff loop.
type RemoteLLM struct {
	cfg        RemoteConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger

	// Stats collects call latencies for the stats endpoint.
	Stats *CallStats
}

func NewRemoteLLM(cfg RemoteConfig, log *slog.Logger) *RemoteLLM {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RemoteLLM{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:        log,
		Stats:      NewCallStats(time.Hour),
	}
}

// Model returns the configured model name.
func (c *RemoteLLM) Model() string { return c.cfg.Model }

func (c *RemoteLLM) Extract(ctx context.Context, header string) ([]Entity, error) {
	rid := uuid.New().String()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	content, err := c.complete(ctx, header)
	c.Stats.Record(time.Since(start).Milliseconds(), err != nil)
	if err != nil {
		c.log.Warn("remote extraction call failed", "req_id", rid, "error", err)
		return nil, err
	}

	fields, err := parseStatementFields([]byte(content))
	if err != nil {
		c.log.Warn("remote response rejected", "req_id", rid, "error", err,
			"content", truncate(content, 200))
		return nil, err
	}

	c.log.Info("remote extraction ok", "req_id", rid,
		"name_len", len(fields.Name), "account_number_len", len(fields.AccountNumber),
		"elapsed_ms", time.Since(start).Milliseconds())

	return []Entity{
		{Label: LabelAccountNumber, Text: fields.AccountNumber},
		{Label: LabelPerson, Text: fields.Name},
	}, nil
}

func (c *RemoteLLM) complete(ctx context.Context, header string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  150,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPromptHeader + header},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm api status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in llm response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

// parseStatementFields parses and validates the model's JSON. A response
// that fails strict parsing gets exactly one cleanup pass (markdown fences
// and embedded newlines stripped) and one reparse before failing for good.
// A missing or empty field after trimming is a hard failure.
func parseStatementFields(raw []byte) (statementFields, error) {
	schema := buildStatementSchema()

	candidate := raw
	if err := validateAgainstSchema(schema, candidate); err != nil {
		cleaned := cleanupResponse(string(candidate))
		if err2 := validateAgainstSchema(schema, []byte(cleaned)); err2 != nil {
			return statementFields{}, fmt.Errorf("response validation failed after cleanup: %w", err2)
		}
		candidate = []byte(cleaned)
	}

	var fields statementFields
	if err := json.Unmarshal(candidate, &fields); err != nil {
		return statementFields{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	fields.AccountNumber = strings.TrimSpace(fields.AccountNumber)
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.AccountNumber == "" || fields.Name == "" {
		return statementFields{}, fmt.Errorf("required field empty after trimming")
	}
	return fields, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// cleanupResponse strips a wrapping markdown code fence and embedded
// newlines from a malformed model response.
func cleanupResponse(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.ReplaceAll(s, "\n", "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient remote failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
