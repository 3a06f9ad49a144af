package pages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/punchlog/internal/common"
)

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]Page, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	// A form-feed \f is used as page separator by default
	return splitFormFeeds(string(out)), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([]Page, error) {
	tmpDir, err := os.MkdirTemp("", "punch-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageIndex(matches[i]) < pageIndex(matches[j]) })
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images: %w", common.ErrNoText)
	}

	out := make([]Page, 0, len(matches))
	for i, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			// an unreadable page contributes no text; the rest of the document still counts
			e.logger.Warn("page ocr failed", "path", path, "page", i+1, "error", err)
			txt = ""
		}
		out = append(out, Page{Number: i + 1, Text: txt})
	}
	return out, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, img string) (string, error) {
	args := []string{img, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// pageIndex reads N from ".../page-N.png".
func pageIndex(path string) int {
	base := filepath.Base(path)
	base = base[:len(base)-len(filepath.Ext(base))]
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '-' {
			n, err := strconv.Atoi(base[i+1:])
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}
