package render

import (
	"errors"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFRenderer extracts per-page text from PDF statements.
type PDFRenderer struct{}

func (r *PDFRenderer) Render(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		if isEncrypted(err) {
			return nil, ErrProtected
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, ErrNoPages
	}

	doc := &Document{}
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page doesn't sink the document.
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})
	}
	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}

func probePDF(path string) (err error) {
	// The pdf library panics on some malformed inputs; the probe runs
	// outside the pipeline's recovery boundary.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open pdf: %v", r)
		}
	}()

	f, _, err := pdflib.Open(path)
	if err != nil {
		if isEncrypted(err) {
			return ErrProtected
		}
		return fmt.Errorf("open pdf: %w", err)
	}
	return f.Close()
}

func isEncrypted(err error) bool {
	if errors.Is(err, pdflib.ErrInvalidPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "encrypt")
}
