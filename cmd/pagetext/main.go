package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/pages"
)

func main() {
	cfg := common.LoadConfig()

	source := flag.String("source", cfg.Pages.Source, "page source: "+strings.Join(common.PageSources, ", "))
	normalize := flag.Bool("normalize", cfg.Pages.NormalizeText, "normalize whitespace and unicode before printing")
	flag.Parse()

	logger := common.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "pagetext [-source auto|pdf|pdftotext|ocr] <file.pdf|file.txt>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg.Pages.Source = strings.ToLower(*source)
	cfg.Pages.NormalizeText = *normalize
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := common.WithTimeout(context.Background(), cfg.Worker.ProcessTimeout)
	defer cancel()

	start := time.Now()
	pgs, err := pages.NewExtractor(pages.ConfigFromEnv(cfg.Pages), logger).Pages(ctx, path)
	if err != nil {
		logger.Error("page extraction failed", "path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		cancel()
		os.Exit(1)
	}

	for _, p := range pgs {
		fmt.Printf("=== Page %d ===\n", p.Number)
		if !p.HasText() {
			fmt.Println("No text extracted from page")
			continue
		}
		fmt.Println(p.Text)
	}
	logger.Info("page extraction OK",
		"path", path,
		"pages", len(pgs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
