package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is the raw extractable text of one statement page.
type Page struct {
	Number int
	Text   string
}

// Document is the rendered form of one statement file: ordered per-page text.
// Formats without page structure render as a single page.
type Document struct {
	Pages []Page
}

// Texts returns the page texts in document order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Text
	}
	return out
}

var (
	// ErrProtected marks a password-protected statement. Protected files are
	// skipped by the batch, never counted as failed.
	ErrProtected = errors.New("document is password protected")

	// ErrNoPages marks a document that rendered to zero pages.
	ErrNoPages = errors.New("document has no pages")
)

// Renderer produces per-page text from a statement file.
type Renderer interface {
	Render(path string) (*Document, error)
}

// SupportedExtensions lists file extensions the batch will enumerate.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".html": true,
	".htm":  true,
	".docx": true,
	".md":   true,
	".txt":  true,
}

// ForFile returns the appropriate renderer for a filename.
func ForFile(filename string) (Renderer, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return &PDFRenderer{}, nil
	case ".html", ".htm":
		return &HTMLRenderer{}, nil
	case ".docx":
		return &DOCXRenderer{}, nil
	case ".md", ".markdown":
		return &MarkdownRenderer{}, nil
	case ".txt":
		return &TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Probe cheaply classifies a file before full rendering. It returns
// ErrProtected for encrypted documents, a wrapped error for files that cannot
// be opened at all, and nil otherwise. A nil result does not guarantee the
// file will render; corrupt content surfaces later as a render error.
func Probe(path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return probePDF(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return f.Close()
}
