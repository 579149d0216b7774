package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// LocalModel runs the pretrained sequence-labeling model through a sidecar
// command: header text on stdin, a JSON entity array on stdout. Entities
// arrive with offsets relative to the input already populated. The command
// is stateless per call, so a single LocalModel is safe for concurrent use.
type LocalModel struct {
	argv      []string
	modelPath string
	timeout   time.Duration
	log       *slog.Logger
}

func NewLocalModel(command, modelPath string, log *slog.Logger) (*LocalModel, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("local model command is empty")
	}
	return &LocalModel{
		argv:      argv,
		modelPath: modelPath,
		timeout:   2 * time.Minute,
		log:       log,
	}, nil
}

// Warmup runs one extraction against a trivial input to prove the model
// loads. A warmup failure is the only error that should abort a whole run.
func (m *LocalModel) Warmup(ctx context.Context) error {
	if _, err := m.Extract(ctx, "warmup"); err != nil {
		return fmt.Errorf("local model warmup: %w", err)
	}
	return nil
}

func (m *LocalModel) Extract(ctx context.Context, header string) ([]Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	args := append(append([]string{}, m.argv[1:]...), "--model", m.modelPath)
	cmd := exec.CommandContext(ctx, m.argv[0], args...)
	cmd.Stdin = strings.NewReader(header)

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ner model: %s: %s", err, truncate(string(exitErr.Stderr), 200))
		}
		return nil, fmt.Errorf("ner model: %w", err)
	}
	m.log.Debug("local model call", "elapsed_ms", time.Since(start).Milliseconds(),
		"input_len", len(header))

	return parseModelEntities(out)
}

// modelEntity is the sidecar's wire format for one labeled span.
type modelEntity struct {
	Text       string   `json:"text"`
	Label      string   `json:"label"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// parseModelEntities decodes the sidecar output, normalizes labels onto the
// closed set and drops spans with labels outside it.
func parseModelEntities(out []byte) ([]Entity, error) {
	var raw []modelEntity
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse model output: %w (raw: %s)", err, truncate(string(out), 200))
	}

	entities := make([]Entity, 0, len(raw))
	for _, r := range raw {
		label, ok := NormalizeLabel(r.Label)
		if !ok {
			continue
		}
		start, end := r.Start, r.End
		entities = append(entities, Entity{
			Label:      label,
			Text:       r.Text,
			Start:      &start,
			End:        &end,
			Confidence: r.Confidence,
		})
	}
	return entities, nil
}
