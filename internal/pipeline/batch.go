package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Sanchay-T/NER/internal/render"
)

// SkippedFile records a statement the batch refused to process, with the
// reason. Skipped files are never failures.
type SkippedFile struct {
	File   string `json:"file"`
	Bank   string `json:"bank"`
	Reason string `json:"reason"`
}

// BatchResult is everything one batch run produced. Every enumerated file
// appears exactly once, either in Documents or in Skipped.
type BatchResult struct {
	Documents []*ProcessedDocument `json:"documents"`
	Skipped   []SkippedFile        `json:"skipped"`
}

// Total returns the number of files the batch enumerated.
func (r *BatchResult) Total() int {
	return len(r.Documents) + len(r.Skipped)
}

// Counts returns the successful and failed document counts. Together with
// len(Skipped) they always sum to Total.
func (r *BatchResult) Counts() (successful, failed int) {
	for _, d := range r.Documents {
		if d.Failed() {
			failed++
		} else {
			successful++
		}
	}
	return successful, failed
}

// BatchOrchestrator walks a root directory whose immediate subfolders are
// banks, probes and dispatches each supported file to the document pipeline,
// and collects the results. Worker concurrency is bounded by a weighted
// semaphore.
type BatchOrchestrator struct {
	pipeline *DocumentPipeline
	workers  int64
	log      *slog.Logger

	// probe classifies a file before rendering. Overridable in tests.
	probe func(path string) error
}

func NewBatchOrchestrator(p *DocumentPipeline, workers int, log *slog.Logger) *BatchOrchestrator {
	if workers < 1 {
		workers = 1
	}
	return &BatchOrchestrator{
		pipeline: p,
		workers:  int64(workers),
		log:      log,
		probe:    render.Probe,
	}
}

type batchItem struct {
	path string
	bank string
}

// Run processes every supported file under root's bank subfolders. It only
// fails outright when root itself cannot be read; per-file problems become
// failed documents or skips.
func (b *BatchOrchestrator) Run(ctx context.Context, root string) (*BatchResult, error) {
	items, skipped, err := b.enumerate(root)
	if err != nil {
		return nil, err
	}
	b.log.Info("batch enumerated", "root", root, "files", len(items), "skipped", len(skipped))

	result := &BatchResult{Skipped: skipped}
	if len(items) == 0 {
		return result, nil
	}

	sem := semaphore.NewWeighted(b.workers)
	docs := make([]*ProcessedDocument, len(items))
	var wg sync.WaitGroup
	start := time.Now()

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			docs[i] = failedDoc(item, fmt.Sprintf("batch cancelled: %s", err))
			continue
		}
		wg.Add(1)
		go func(i int, item batchItem) {
			defer wg.Done()
			defer sem.Release(1)
			docs[i] = b.pipeline.Process(ctx, item.path, item.bank)
		}(i, item)
	}
	wg.Wait()

	result.Documents = docs
	successful, failed := result.Counts()
	b.log.Info("batch complete",
		"total", result.Total(),
		"successful", successful,
		"failed", failed,
		"skipped", len(result.Skipped),
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return result, nil
}

// enumerate walks the immediate subfolders of root, treating each folder name
// as the bank name. Files directly under root and unsupported extensions are
// ignored. Password-protected files become skips; files the probe cannot open
// are deferred to the pipeline, which records them as failed documents.
func (b *BatchOrchestrator) enumerate(root string) ([]batchItem, []SkippedFile, error) {
	banks, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read batch root: %w", err)
	}

	var items []batchItem
	var skipped []SkippedFile
	for _, bank := range banks {
		if !bank.IsDir() {
			continue
		}
		dir := filepath.Join(root, bank.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			b.log.Warn("cannot read bank folder", "dir", dir, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() || !render.IsSupportedExtension(f.Name()) {
				continue
			}
			path := filepath.Join(dir, f.Name())
			if err := b.probe(path); errors.Is(err, render.ErrProtected) {
				b.log.Info("skipping protected file", "file", f.Name(), "bank", bank.Name())
				skipped = append(skipped, SkippedFile{
					File:   f.Name(),
					Bank:   bank.Name(),
					Reason: "password protected",
				})
				continue
			}
			items = append(items, batchItem{path: path, bank: bank.Name()})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })
	return items, skipped, nil
}

func failedDoc(item batchItem, reason string) *ProcessedDocument {
	abs, err := filepath.Abs(item.path)
	if err != nil {
		abs = item.path
	}
	return &ProcessedDocument{
		Filename:  filepath.Base(item.path),
		Timestamp: time.Now(),
		Metadata:  Metadata{BankName: item.bank, SourcePath: abs},
		Error:     reason,
	}
}
