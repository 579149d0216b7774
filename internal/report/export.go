package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/pipeline"
)

// Artifact filenames written by WriteAll.
const (
	ResultsFile  = "results.json"
	SummaryFile  = "summary.json"
	FailedFile   = "failed.csv"
	SkippedFile  = "skipped.csv"
	TrainingFile = "training.json"
	WorkbookFile = "results.xlsx"
)

type entityRecord struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Position   *[2]int  `json:"position"`
}

type resultRecord struct {
	Timestamp        time.Time                      `json:"timestamp"`
	BankName         string                         `json:"bank_name"`
	PDFName          string                         `json:"pdf_name"`
	PDFPath          string                         `json:"pdf_path"`
	ExtractedText    string                         `json:"extracted_text"`
	Entities         map[extract.Label]entityRecord `json:"entities"`
	Metadata         pipeline.Metadata              `json:"metadata"`
	ProcessingStatus string                         `json:"processing_status"`
	Error            string                         `json:"error,omitempty"`
}

// sortedDocs returns a bank-then-filename ordered copy so every artifact is
// deterministic regardless of worker completion order.
func sortedDocs(docs []*pipeline.ProcessedDocument) []*pipeline.ProcessedDocument {
	out := make([]*pipeline.ProcessedDocument, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Metadata.BankName != out[j].Metadata.BankName {
			return out[i].Metadata.BankName < out[j].Metadata.BankName
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}

func recordFor(doc *pipeline.ProcessedDocument) resultRecord {
	rec := resultRecord{
		Timestamp:        doc.Timestamp,
		BankName:         doc.Metadata.BankName,
		PDFName:          doc.Filename,
		PDFPath:          doc.Metadata.SourcePath,
		ExtractedText:    doc.HeaderText,
		Entities:         make(map[extract.Label]entityRecord, len(doc.Entities)),
		Metadata:         doc.Metadata,
		ProcessingStatus: "success",
	}
	if doc.Failed() {
		rec.ProcessingStatus = "failed"
		rec.Error = doc.Error
	}
	for _, e := range doc.Entities {
		er := entityRecord{Text: e.Text, Confidence: e.Confidence}
		if e.HasOffsets() {
			er.Position = &[2]int{*e.Start, *e.End}
		}
		rec.Entities[e.Label] = er
	}
	return rec
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// WriteResultsJSON writes the per-document results artifact.
func WriteResultsJSON(path string, docs []*pipeline.ProcessedDocument) error {
	records := make([]resultRecord, 0, len(docs))
	for _, doc := range sortedDocs(docs) {
		records = append(records, recordFor(doc))
	}
	return writeJSON(path, records)
}

// WriteSummaryJSON writes the aggregated batch summary.
func WriteSummaryJSON(path string, summary *BatchSummary) error {
	return writeJSON(path, summary)
}

// WriteFailedCSV writes one row per failed document.
func WriteFailedCSV(path string, docs []*pipeline.ProcessedDocument) error {
	rows := [][]string{{"file", "bank", "error"}}
	for _, doc := range sortedDocs(docs) {
		if doc.Failed() {
			rows = append(rows, []string{doc.Filename, doc.Metadata.BankName, doc.Error})
		}
	}
	return writeCSV(path, rows)
}

// WriteSkippedCSV writes one row per skipped file.
func WriteSkippedCSV(path string, skipped []pipeline.SkippedFile) error {
	ordered := make([]pipeline.SkippedFile, len(skipped))
	copy(ordered, skipped)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Bank != ordered[j].Bank {
			return ordered[i].Bank < ordered[j].Bank
		}
		return ordered[i].File < ordered[j].File
	})

	rows := [][]string{{"file", "bank", "reason"}}
	for _, s := range ordered {
		rows = append(rows, []string{s.File, s.Bank, s.Reason})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// WriteTrainingJSON writes annotation pairs in the sequence-labeling training
// layout: [[text, {"entities": [[start, end, label], ...]}], ...]. Entities
// without offsets are excluded; documents that contribute no offset-bearing
// entity are dropped entirely.
func WriteTrainingJSON(path string, docs []*pipeline.ProcessedDocument) error {
	pairs := make([]any, 0, len(docs))
	for _, doc := range sortedDocs(docs) {
		if doc.Failed() {
			continue
		}
		spans := make([][]any, 0, len(doc.Entities))
		for _, e := range doc.Entities {
			if e.HasOffsets() {
				spans = append(spans, []any{*e.Start, *e.End, string(e.Label)})
			}
		}
		if len(spans) == 0 {
			continue
		}
		pairs = append(pairs, []any{doc.HeaderText, map[string]any{"entities": spans}})
	}
	return writeJSON(path, pairs)
}

// WriteResultsXLSX writes a review workbook with Results, Failed and Skipped
// sheets.
func WriteResultsXLSX(path string, docs []*pipeline.ProcessedDocument, skipped []pipeline.SkippedFile) error {
	f := excelize.NewFile()
	defer f.Close()

	ordered := sortedDocs(docs)

	const resultsSheet = "Results"
	if err := renameDefaultSheet(f, resultsSheet); err != nil {
		return err
	}
	setRow(f, resultsSheet, 1, []any{"File", "Bank", "Status", "Name", "Account Number", "Confidence", "Error"})
	row := 2
	for _, doc := range ordered {
		status := "success"
		if doc.Failed() {
			status = "failed"
		}
		var name, account string
		var confidence any
		if e, ok := doc.Entity(extract.LabelPerson); ok {
			name = e.Text
			if e.Confidence != nil {
				confidence = *e.Confidence
			}
		}
		if e, ok := doc.Entity(extract.LabelAccountNumber); ok {
			account = e.Text
		}
		setRow(f, resultsSheet, row, []any{doc.Filename, doc.Metadata.BankName, status, name, account, confidence, doc.Error})
		row++
	}

	const failedSheet = "Failed"
	if _, err := f.NewSheet(failedSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	setRow(f, failedSheet, 1, []any{"File", "Bank", "Error"})
	row = 2
	for _, doc := range ordered {
		if doc.Failed() {
			setRow(f, failedSheet, row, []any{doc.Filename, doc.Metadata.BankName, doc.Error})
			row++
		}
	}

	const skippedSheet = "Skipped"
	if _, err := f.NewSheet(skippedSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	setRow(f, skippedSheet, 1, []any{"File", "Bank", "Reason"})
	for i, s := range skipped {
		setRow(f, skippedSheet, i+2, []any{s.File, s.Bank, s.Reason})
	}

	_ = f.SetColWidth(resultsSheet, "A", "B", 28)
	_ = f.SetColWidth(resultsSheet, "D", "E", 24)
	_ = f.SetColWidth(resultsSheet, "G", "G", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func renameDefaultSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// WriteAll writes every artifact for one batch run into dir, creating it if
// needed.
func WriteAll(dir string, result *pipeline.BatchResult, summary *BatchSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	steps := []struct {
		name  string
		write func() error
	}{
		{ResultsFile, func() error { return WriteResultsJSON(filepath.Join(dir, ResultsFile), result.Documents) }},
		{SummaryFile, func() error { return WriteSummaryJSON(filepath.Join(dir, SummaryFile), summary) }},
		{FailedFile, func() error { return WriteFailedCSV(filepath.Join(dir, FailedFile), result.Documents) }},
		{SkippedFile, func() error { return WriteSkippedCSV(filepath.Join(dir, SkippedFile), result.Skipped) }},
		{TrainingFile, func() error { return WriteTrainingJSON(filepath.Join(dir, TrainingFile), result.Documents) }},
		{WorkbookFile, func() error { return WriteResultsXLSX(filepath.Join(dir, WorkbookFile), result.Documents, result.Skipped) }},
	}
	for _, step := range steps {
		if err := step.write(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}
