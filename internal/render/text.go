package render

import (
	"fmt"
	"os"
	"strings"
)

// TextRenderer handles plain-text statement exports. Form feeds separate
// pages when present; otherwise the file is a single page.
type TextRenderer struct{}

func (r *TextRenderer) Render(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	doc := &Document{}
	for i, page := range strings.Split(string(data), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: page})
	}
	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}
