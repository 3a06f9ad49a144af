// Package pages turns attendance-log documents into ordered per-page text.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
)

// Page is the text recovered from one page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// HasText reports whether the page yielded anything but whitespace.
func (p Page) HasText() bool {
	return strings.TrimSpace(p.Text) != ""
}

// Source yields the pages of a document in order.
type Source interface {
	Pages(ctx context.Context, path string) ([]Page, error)
}

type Config struct {
	Method string // common.PageSource*; empty -> auto

	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	PSM           int // tesseract page segmentation mode; 6 suits tabular logs
	MaxPages      int // 0 = no limit

	MinConfidence float32 // auto mode keeps reader text scoring at least this; default 0.5

	NormalizeText bool
}

// ConfigFromEnv maps the loaded environment configuration onto Config.
func ConfigFromEnv(c common.PagesConfig) Config {
	return Config{
		Method:        c.Source,
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		DPI:           c.DPI,
		PSM:           c.PSM,
		MaxPages:      c.MaxPages,
		NormalizeText: c.NormalizeText,
	}
}

// Extractor is the default Source. It picks a strategy from the file extension
// and the configured method.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Method == "" {
		cfg.Method = common.PageSourceAuto
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.5
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Pages extracts page text from path.
func (e *Extractor) Pages(ctx context.Context, path string) ([]Page, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("pages.extract.start", "path", path, "method", e.cfg.Method, "ext", ext)

	var (
		pages  []Page
		method string
		err    error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.TEXT:
		method = "text"
		pages, err = e.textFilePages(path)
	case constants.PDF:
		pages, method, err = e.pdfPages(ctx, path)
	default:
		e.logger.Error("unsupported document extension", "extension", ext)
		return nil, common.NewAppError(common.CodeUnsupportedFormat, fmt.Sprintf("extension %q", ext), common.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if e.cfg.NormalizeText {
		for i := range pages {
			pages[i].Text = Normalize(pages[i].Text)
		}
	}

	e.logger.Debug("pages.extract.ok",
		"path", path,
		"method", method,
		"pages", len(pages),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

func (e *Extractor) pdfPages(ctx context.Context, path string) ([]Page, string, error) {
	switch e.cfg.Method {
	case common.PageSourcePDF:
		pages, err := e.readPDF(path)
		return pages, common.PageSourcePDF, err
	case common.PageSourcePdftotext:
		pages, err := e.pdfToText(ctx, path)
		return pages, common.PageSourcePdftotext, err
	case common.PageSourceOCR:
		pages, err := e.pdfToOCR(ctx, path)
		return pages, common.PageSourceOCR, err
	case common.PageSourceAuto:
		return e.autoPages(ctx, path)
	default:
		return nil, "", common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("page source %q", e.cfg.Method), common.ErrInvalidInput)
	}
}

// autoPages tries the in-process reader, then pdftotext, then OCR. The reader's
// text is kept when it looks like an attendance log; otherwise any text from
// pdftotext wins, and OCR runs only when no text layer yields anything.
func (e *Extractor) autoPages(ctx context.Context, path string) ([]Page, string, error) {
	pages, err := e.readPDF(path)
	if err == nil {
		conf := documentConfidence(pages)
		if conf >= e.cfg.MinConfidence {
			return pages, common.PageSourcePDF, nil
		}
		e.logger.Info("pdf text layer looks weak, trying pdftotext", "path", path, "pages", len(pages), "confidence", conf)
	} else {
		e.logger.Warn("pdf reader failed, trying pdftotext", "path", path, "error", err)
	}

	ptPages, ptErr := e.pdfToText(ctx, path)
	if ptErr == nil && anyText(ptPages) {
		return ptPages, common.PageSourcePdftotext, nil
	}
	if err == nil && anyText(pages) {
		return pages, common.PageSourcePDF, nil
	}
	if ptErr != nil {
		e.logger.Warn("pdftotext failed, trying ocr", "path", path, "error", ptErr)
	} else {
		e.logger.Info("pdf has no text layer, trying ocr", "path", path)
	}

	ocrPages, err := e.pdfToOCR(ctx, path)
	if err != nil {
		return nil, common.PageSourceOCR, err
	}
	return ocrPages, common.PageSourceOCR, nil
}

func anyText(pages []Page) bool {
	for _, p := range pages {
		if p.HasText() {
			return true
		}
	}
	return false
}
