package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/render"
)

// markerExtractor fails any header containing the word FAIL.
type markerExtractor struct{}

func (markerExtractor) Extract(ctx context.Context, header string) ([]extract.Entity, error) {
	if strings.Contains(header, "FAIL") {
		return nil, errors.New("extraction rejected")
	}
	return []extract.Entity{{Label: extract.LabelPerson, Text: "Jane Doe"}}, nil
}

func writeBankFile(t *testing.T, root, bank, name, content string) {
	t.Helper()
	dir := filepath.Join(root, bank)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func newTestOrchestrator(workers int) *BatchOrchestrator {
	p := NewDocumentPipeline(markerExtractor{}, discardLogger())
	return NewBatchOrchestrator(p, workers, discardLogger())
}

func TestRun_CountsConservation(t *testing.T) {
	root := t.TempDir()
	writeBankFile(t, root, "hdfc", "good.txt", "Name: Jane Doe\nDate Particulars\nrows")
	writeBankFile(t, root, "hdfc", "bad.txt", "FAIL header\nDate Particulars\nrows")
	writeBankFile(t, root, "icici", "locked.txt", "irrelevant")

	b := newTestOrchestrator(2)
	b.probe = func(path string) error {
		if filepath.Base(path) == "locked.txt" {
			return render.ErrProtected
		}
		return nil
	}

	result, err := b.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	successful, failed := result.Counts()
	if successful != 1 || failed != 1 || len(result.Skipped) != 1 {
		t.Fatalf("expected 1/1/1, got successful=%d failed=%d skipped=%d",
			successful, failed, len(result.Skipped))
	}
	if got := successful + failed + len(result.Skipped); got != result.Total() {
		t.Fatalf("counts must sum to total: %d != %d", got, result.Total())
	}
	if result.Skipped[0].File != "locked.txt" || result.Skipped[0].Reason != "password protected" {
		t.Errorf("unexpected skip record: %+v", result.Skipped[0])
	}
}

func TestRun_IgnoresRootLevelFilesAndUnsupportedExtensions(t *testing.T) {
	root := t.TempDir()
	writeBankFile(t, root, "hdfc", "good.txt", "Name: Jane Doe\nDate Particulars\nrows")
	writeBankFile(t, root, "hdfc", "notes.xlsx", "ignored")
	if err := os.WriteFile(filepath.Join(root, "loose.txt"), []byte("no bank"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	result, err := newTestOrchestrator(2).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total() != 1 {
		t.Fatalf("expected exactly one enumerated file, got %d", result.Total())
	}
	if result.Documents[0].Metadata.BankName != "hdfc" {
		t.Errorf("expected bank hdfc, got %q", result.Documents[0].Metadata.BankName)
	}
}

func TestRun_EmptyRoot(t *testing.T) {
	result, err := newTestOrchestrator(1).Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total() != 0 {
		t.Fatalf("expected empty result, got total=%d", result.Total())
	}
}

func TestRun_MissingRootErrors(t *testing.T) {
	if _, err := newTestOrchestrator(1).Run(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestRun_CancelledContextProducesFailedDocuments(t *testing.T) {
	root := t.TempDir()
	writeBankFile(t, root, "hdfc", "a.txt", "Name: Jane Doe\nDate Particulars\nrows")
	writeBankFile(t, root, "hdfc", "b.txt", "Name: Jane Doe\nDate Particulars\nrows")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestOrchestrator(1).Run(ctx, root)
	if err != nil {
		t.Fatalf("cancellation must not abort the run: %v", err)
	}
	_, failed := result.Counts()
	if failed != result.Total() {
		t.Fatalf("expected every document failed after cancel, got %d of %d", failed, result.Total())
	}
}
