// Package extract converts uploaded files into plain text for chunking.
// Parse failures are reported as errors to the caller, which records them
// on the document instead of propagating.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Result holds extracted document text. Pages is populated only for
// page-oriented formats so the chunker can split at page boundaries.
type Result struct {
	Text  string
	Pages []string
}

// DetectType returns a normalized file type for raw content, preferring
// content sniffing over the filename extension.
func DetectType(raw []byte, filename string) string {
	if len(raw) > 0 {
		mt := mimetype.Detect(raw)
		switch {
		case mt.Is("application/pdf"):
			return "pdf"
		case mt.Is("text/markdown"):
			return "markdown"
		case strings.HasPrefix(mt.String(), "text/"):
			// Fall through to the extension check below so .md files
			// sniffed as text/plain still count as markdown.
		default:
			return strings.TrimPrefix(mt.String(), "application/")
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".md", ".markdown":
		return "markdown"
	default:
		return "text"
	}
}

// Extract converts raw file content into text.
// Empty or whitespace-only input is an error: the caller records it as a
// parse failure on the document rather than creating zero chunks silently.
func Extract(raw []byte, filename, fileType string) (Result, error) {
	if len(raw) == 0 {
		return Result{}, fmt.Errorf("empty text: file %q has no content", filename)
	}

	switch fileType {
	case "pdf":
		return extractPDF(raw)
	default:
		return extractPlain(raw, filename)
	}
}

// extractPlain treats the content as UTF-8 text (markdown included).
func extractPlain(raw []byte, filename string) (Result, error) {
	if !utf8.Valid(raw) {
		return Result{}, fmt.Errorf("unreadable content: file %q is not valid UTF-8 text", filename)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return Result{}, fmt.Errorf("empty text: file %q contains only whitespace", filename)
	}
	return Result{Text: text}, nil
}

// extractPDF pulls plain text per page. Pages with no extractable text are
// kept as empty strings to preserve page numbering; a document where every
// page is empty (scanned images, no text layer) is a parse failure.
func extractPDF(raw []byte) (result Result, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return Result{}, fmt.Errorf("pdf has no pages")
	}

	pages := make([]string, 0, total)
	var nonEmpty int
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			pages = append(pages, "")
			continue
		}
		text = strings.TrimSpace(text)
		pages = append(pages, text)
		if text != "" {
			nonEmpty++
		}
	}

	if nonEmpty == 0 {
		return Result{}, fmt.Errorf("pdf has no extractable text (scanned or corrupted file)")
	}

	var sb strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p)
	}

	return Result{Text: sb.String(), Pages: pages}, nil
}
