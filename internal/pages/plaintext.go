package pages

import (
	"os"
	"strings"

	"github.com/joseph-ayodele/punchlog/internal/common"
)

// formFeed separates pages in pdftotext output and in plain-text exports.
const formFeed = "\f"

// splitFormFeeds turns text with form-feed page breaks into numbered pages.
// A single trailing form feed (pdftotext always writes one) does not start a page.
func splitFormFeeds(text string) []Page {
	text = strings.TrimSuffix(text, formFeed)
	parts := strings.Split(text, formFeed)
	out := make([]Page, len(parts))
	for i, p := range parts {
		out[i] = Page{Number: i + 1, Text: p}
	}
	return out
}

func (e *Extractor) textFilePages(path string) ([]Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(err, "read text")
	}
	return splitFormFeeds(string(b)), nil
}
