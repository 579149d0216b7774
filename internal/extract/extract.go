// Package extract pulls account-holder and account-number entities out of
// statement header text, via either a local NER model or a remote LLM.
package extract

import (
	"context"
	"strings"
)

// Label is the closed set of entity labels this system extracts.
type Label string

const (
	LabelPerson        Label = "PERSON"
	LabelAccountNumber Label = "ACCOUNT_NUMBER"
)

// Labels lists all supported labels in stable order.
var Labels = []Label{LabelPerson, LabelAccountNumber}

// NormalizeLabel maps model-native label spellings onto the closed set.
// The local model was trained with the short PER / ACC_NO tags.
func NormalizeLabel(s string) (Label, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PER", "PERSON", "NAME":
		return LabelPerson, true
	case "ACC_NO", "ACC_NUM", "ACCOUNT_NUMBER":
		return LabelAccountNumber, true
	}
	return "", false
}

// Entity is a labeled span of extracted information. Offsets are absent for
// backends that do not emit them natively (the resolver fills them in when
// the text is locatable); confidence is absent for backends without a score.
type Entity struct {
	Label      Label    `json:"label"`
	Text       string   `json:"text"`
	Start      *int     `json:"start,omitempty"`
	End        *int     `json:"end,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// HasOffsets reports whether both character offsets are populated.
func (e Entity) HasOffsets() bool {
	return e.Start != nil && e.End != nil
}

// Extractor is the capability the pipeline depends on. Both backends sit
// behind it; the pipeline never knows which one is active.
type Extractor interface {
	Extract(ctx context.Context, header string) ([]Entity, error)
}
