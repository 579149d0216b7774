package report

import (
	"sort"

	"github.com/Sanchay-T/NER/internal/extract"
	"github.com/Sanchay-T/NER/internal/pipeline"
)

// HighConfidenceThreshold splits entities into review buckets. Strictly
// greater counts as high; an absent confidence is treated as zero.
const HighConfidenceThreshold = 0.8

// LabelStats is the per-label coverage across successful documents.
type LabelStats struct {
	Found       int     `json:"found"`
	Missing     int     `json:"missing"`
	SuccessRate float64 `json:"success_rate"`
}

// BucketEntry is one extracted entity placed in a confidence bucket.
type BucketEntry struct {
	File       string        `json:"file"`
	Bank       string        `json:"bank"`
	Label      extract.Label `json:"label"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}

// BatchSummary is a derived view of one batch run. It is recomputed from the
// full document list every time, never mutated incrementally.
type BatchSummary struct {
	Total          int                            `json:"total"`
	Successful     int                            `json:"successful"`
	Failed         int                            `json:"failed"`
	Skipped        int                            `json:"skipped"`
	PerLabel       map[extract.Label]LabelStats   `json:"per_label_stats"`
	HighConfidence []BucketEntry                  `json:"high_confidence"`
	LowConfidence  []BucketEntry                  `json:"low_confidence"`
	MissingFiles   map[extract.Label][]string     `json:"missing_files"`
}

// Summarize builds a BatchSummary from whatever documents completed. It is a
// pure function of its inputs and is safe to call on a partial corpus.
func Summarize(docs []*pipeline.ProcessedDocument, skipped []pipeline.SkippedFile) *BatchSummary {
	s := &BatchSummary{
		Skipped:        len(skipped),
		PerLabel:       make(map[extract.Label]LabelStats, len(extract.Labels)),
		HighConfidence: []BucketEntry{},
		LowConfidence:  []BucketEntry{},
		MissingFiles:   make(map[extract.Label][]string, len(extract.Labels)),
	}

	ordered := make([]*pipeline.ProcessedDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Metadata.BankName != ordered[j].Metadata.BankName {
			return ordered[i].Metadata.BankName < ordered[j].Metadata.BankName
		}
		return ordered[i].Filename < ordered[j].Filename
	})

	for _, label := range extract.Labels {
		s.PerLabel[label] = LabelStats{}
		s.MissingFiles[label] = []string{}
	}

	for _, doc := range ordered {
		if doc.Failed() {
			s.Failed++
			continue
		}
		s.Successful++
		for _, label := range extract.Labels {
			ent, ok := doc.Entity(label)
			stats := s.PerLabel[label]
			if !ok {
				stats.Missing++
				s.PerLabel[label] = stats
				s.MissingFiles[label] = append(s.MissingFiles[label], doc.Filename)
				continue
			}
			stats.Found++
			s.PerLabel[label] = stats

			entry := BucketEntry{
				File:  doc.Filename,
				Bank:  doc.Metadata.BankName,
				Label: label,
				Text:  ent.Text,
			}
			if ent.Confidence != nil {
				entry.Confidence = *ent.Confidence
			}
			if entry.Confidence > HighConfidenceThreshold {
				s.HighConfidence = append(s.HighConfidence, entry)
			} else {
				s.LowConfidence = append(s.LowConfidence, entry)
			}
		}
	}

	s.Total = s.Successful + s.Failed + s.Skipped
	for label, stats := range s.PerLabel {
		if s.Successful > 0 {
			stats.SuccessRate = float64(stats.Found) / float64(s.Successful)
		}
		s.PerLabel[label] = stats
	}
	return s
}
