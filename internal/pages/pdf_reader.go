package pages

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts text in-process, one Page per PDF page. Pages without a
// text layer come back empty rather than failing the document.
func (e *Extractor) readPDF(path string) (pages []Page, err error) {
	// the reader panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("close pdf", "path", path, "error", cerr)
		}
	}()

	n := r.NumPage()
	out := make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			out = append(out, Page{Number: i})
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			e.logger.Warn("pdf page text failed", "path", path, "page", i, "error", err)
			out = append(out, Page{Number: i})
			continue
		}
		out = append(out, Page{Number: i, Text: rowsToText(rows)})
	}
	return out, nil
}

// rowsToText renders each text row as one line, words separated by a space.
func rowsToText(rows pdf.Rows) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		words := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			if s := strings.TrimSpace(word.S); s != "" {
				words = append(words, s)
			}
		}
		b.WriteString(strings.Join(words, " "))
	}
	return b.String()
}
