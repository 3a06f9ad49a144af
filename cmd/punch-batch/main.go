package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/export"
	"github.com/joseph-ayodele/punchlog/internal/extract"
	"github.com/joseph-ayodele/punchlog/internal/ingest"
	"github.com/joseph-ayodele/punchlog/internal/normalize"
	"github.com/joseph-ayodele/punchlog/internal/pages"
	"github.com/joseph-ayodele/punchlog/internal/pipeline"
	repo "github.com/joseph-ayodele/punchlog/internal/repository"
)

const defaultOutput = "output.xlsx"

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := common.LoadConfig()

	var (
		in            = flag.String("in", "", "attendance log to process (.pdf or .txt)")
		dir           = flag.String("dir", "", "directory of attendance logs to process")
		out           = flag.String("out", "", "output XLSX path (default: output.xlsx next to the input)")
		rulesFile     = flag.String("rules", cfg.Extract.RulesFile, "YAML or JSON extraction rules file")
		source        = flag.String("source", cfg.Pages.Source, "page source: "+strings.Join(common.PageSources, ", "))
		workers       = flag.Int("workers", cfg.Worker.Workers, "documents processed in parallel with -dir")
		dbURL         = flag.String("db", cfg.Database.DSN, "run store DSN (postgres://... or a SQLite path); empty disables the store")
		requireUserID = flag.Bool("require-user-id", cfg.Extract.RequireUserID, "drop punch lines without a user id")
		includeHidden = flag.Bool("include-hidden", false, "also process hidden files and directories with -dir")
	)
	flag.Parse()

	v := common.NewValidator().Field("-in/-dir", [2]string{*in, *dir}, common.ExclusiveOf)
	if err := common.ValidateAndReturnError(v); err != nil {
		printError("Error: %v\n", err)
		flag.Usage()
		return 2
	}

	cfg.Pages.Source = strings.ToLower(*source)
	cfg.Worker.Workers = *workers
	cfg.Database.DSN = *dbURL
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		return 2
	}

	if *out == "" {
		if *in != "" {
			*out = filepath.Join(filepath.Dir(*in), defaultOutput)
		} else {
			*out = filepath.Join(*dir, defaultOutput)
		}
	}

	logger := common.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules := extract.DefaultRules()
	if *rulesFile != "" {
		var err error
		if rules, err = extract.LoadRules(*rulesFile); err != nil {
			printError("Error: %v\n", err)
			return 2
		}
	}
	rules.RequireUserID = rules.RequireUserID || *requireUserID

	classifier, err := extract.NewClassifier(rules, nil)
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}
	normalizer := normalize.Default()
	if rules.DateLayout != normalizer.DateLayout || rules.TimeLayout != normalizer.TimeLayout {
		normalizer = normalize.New(rules.DateLayout, rules.TimeLayout)
	}
	extractor := pages.NewExtractor(pages.ConfigFromEnv(cfg.Pages), logger)

	var opts []pipeline.ProcessorOption
	if cfg.Database.DSN != "" {
		db, err := repo.Open(ctx, repo.ConfigFromEnv(cfg.Database), logger)
		if err != nil {
			logger.Error("failed to open run store", "error", err)
			return 1
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate run store", "error", err)
			return 1
		}
		opts = append(opts, pipeline.WithStore(repo.NewRunRepository(db, logger), repo.NewPunchRepository(db, logger)))
	}

	processor := pipeline.NewProcessor(logger, extractor, classifier, normalizer, opts...)

	if *in != "" {
		return runSingle(ctx, processor, *in, *out, logger)
	}
	return runBatch(ctx, processor, cfg, *dir, *out, !*includeHidden, logger)
}

func runSingle(ctx context.Context, processor *pipeline.Processor, in, out string, logger *slog.Logger) int {
	hash, err := ingest.HashFile(in)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}

	res, err := processor.ProcessFile(ctx, in, hash)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	if len(res.Records) == 0 {
		fmt.Println("No data found")
		return 0
	}

	if err := writeXLSX(out, func() ([]byte, error) { return export.WriteXLSX(res.Records) }); err != nil {
		logger.Error("failed to write output file", "output", out, "error", err)
		return 1
	}

	fmt.Printf("Processing complete!\n")
	fmt.Printf("- Pages: %d (%d empty)\n", res.Pages, len(res.EmptyPages))
	fmt.Printf("- Records: %d\n", len(res.Records))
	fmt.Printf("- Output: %s\n", out)
	return 0
}

func runBatch(ctx context.Context, processor *pipeline.Processor, cfg *common.Config, dir, out string, skipHidden bool, logger *slog.Logger) int {
	docs, _, stats, err := ingest.ScanDirectory(dir, skipHidden)
	if err != nil {
		logger.Error("failed to scan directory", "dir", dir, "error", err)
		return 1
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	var (
		mu       sync.Mutex
		results  = make([]*pipeline.Result, len(docs))
		failures int
	)
	queue := pipeline.NewQueue(processor, logger,
		pipeline.WithWorkers(cfg.Worker.Workers),
		pipeline.WithProcessTimeout(cfg.Worker.ProcessTimeout),
		pipeline.WithResultFunc(func(job pipeline.Job, res pipeline.Result, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			results[job.Index] = &res
		}),
	)
	for i, d := range docs {
		if err := queue.Enqueue(ctx, pipeline.Job{Index: i, Path: d.Path, ContentHash: d.HashHex}); err != nil {
			logger.Error("failed to enqueue document", "source", d.Path, "error", err)
			mu.Lock()
			failures++
			mu.Unlock()
		}
	}
	queue.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()

	var (
		sheets  []export.Sheet
		records int
	)
	for _, res := range results {
		if res == nil || len(res.Records) == 0 {
			continue
		}
		sheets = append(sheets, export.Sheet{Name: res.Source, Records: res.Records})
		records += len(res.Records)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents: %d\n", len(docs))
	fmt.Printf("- With records: %d\n", len(sheets))
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Records: %d\n", records)

	if records == 0 {
		fmt.Println("No data found")
	} else {
		if err := writeXLSX(out, func() ([]byte, error) { return export.WriteWorkbook(sheets) }); err != nil {
			logger.Error("failed to write output file", "output", out, "error", err)
			return 1
		}
		fmt.Printf("- Output: %s\n", out)
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func writeXLSX(out string, render func() ([]byte, error)) error {
	b, err := render()
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0o644)
}
