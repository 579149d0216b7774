package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/render"
	"github.com/Sanchay-T/NER/internal/segment"
)

// Metadata identifies where a processed statement came from.
type Metadata struct {
	BankName   string `json:"bank_name"`
	SourcePath string `json:"source_path"`
}

// ProcessedDocument is the per-file outcome of the pipeline. It is created
// once, never mutated afterwards, and appended to the corpus list the
// aggregator reads. A non-empty Error means the document failed; entities
// are empty in that case.
type ProcessedDocument struct {
	Filename   string           `json:"filename"`
	Timestamp  time.Time        `json:"timestamp"`
	HeaderText string           `json:"header_text"`
	Entities   []extract.Entity `json:"entities"`
	Metadata   Metadata         `json:"metadata"`
	Error      string           `json:"error,omitempty"`
}

// Failed reports whether processing this document failed.
func (d *ProcessedDocument) Failed() bool { return d.Error != "" }

// Entity returns the first entity with the given label, if any.
func (d *ProcessedDocument) Entity(label extract.Label) (extract.Entity, bool) {
	for _, e := range d.Entities {
		if e.Label == label {
			return e, true
		}
	}
	return extract.Entity{}, false
}

// DocumentPipeline runs one statement file through
// render -> segment -> extract -> resolve. It holds the extractor behind its
// interface and never learns which backend is active.
type DocumentPipeline struct {
	extractor extract.Extractor
	log       *slog.Logger
}

func NewDocumentPipeline(extractor extract.Extractor, log *slog.Logger) *DocumentPipeline {
	return &DocumentPipeline{extractor: extractor, log: log}
}

// Process always returns a ProcessedDocument; every failure, including a
// panic below this frame, converts into the document's Error field. Nothing
// propagates to the caller.
func (p *DocumentPipeline) Process(ctx context.Context, path, bank string) (doc *ProcessedDocument) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if bank == "" {
		bank = filepath.Base(filepath.Dir(abs))
	}
	doc = &ProcessedDocument{
		Filename:  filepath.Base(path),
		Timestamp: time.Now(),
		Metadata:  Metadata{BankName: bank, SourcePath: abs},
	}
	defer func() {
		if r := recover(); r != nil {
			doc.Error = fmt.Sprintf("panic: %v", r)
			doc.Entities = nil
		}
	}()

	renderer, err := render.ForFile(path)
	if err != nil {
		doc.Error = err.Error()
		return doc
	}
	rendered, err := renderer.Render(path)
	if err != nil {
		doc.Error = fmt.Sprintf("render: %s", err)
		return doc
	}

	doc.HeaderText = segment.Header(rendered.Texts())

	entities, err := p.extractWithRetry(ctx, doc.HeaderText)
	if err != nil {
		doc.Error = fmt.Sprintf("extract: %s", err)
		return doc
	}

	resolved := extract.ResolveAll(doc.HeaderText, entities)
	for _, e := range resolved {
		if !e.HasOffsets() {
			p.log.Warn("entity not locatable in header",
				"file", doc.Filename, "label", e.Label, "text", e.Text)
		}
	}
	doc.Entities = resolved
	return doc
}

func (p *DocumentPipeline) extractWithRetry(ctx context.Context, header string) ([]extract.Entity, error) {
	var entities []extract.Entity
	var lastErr error
	for attempt := range MaxRetries {
		entities, lastErr = p.extractor.Extract(ctx, header)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		p.log.Warn("retryable extraction error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return entities, lastErr
}
