// Package pipeline runs documents through page extraction, line classification
// and normalization, and records each run in the store when one is configured.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
	"github.com/joseph-ayodele/punchlog/internal/extract"
	"github.com/joseph-ayodele/punchlog/internal/normalize"
	"github.com/joseph-ayodele/punchlog/internal/pages"
	"github.com/joseph-ayodele/punchlog/internal/repository"
)

// Result is the outcome of one document.
type Result struct {
	RunID      uuid.UUID
	Source     string
	Records    []entity.PunchRecord
	Pages      int
	EmptyPages []int  // page numbers that yielded no text
	FinalDate  string // active date after the last line, "" if none was seen
}

// Status maps the result onto a run status.
func (r Result) Status() constants.RunStatus {
	if len(r.Records) == 0 {
		return constants.RunStatusEmpty
	}
	return constants.RunStatusOK
}

// Processor coordinates page extraction, classification and normalization.
type Processor struct {
	logger     *slog.Logger
	source     pages.Source
	classifier *extract.Classifier
	normalizer normalize.Normalizer

	runsRepo    repository.RunRepository
	punchesRepo repository.PunchRepository
}

type ProcessorOption func(*Processor)

// WithStore persists every ProcessFile call as a run with its records.
func WithStore(runs repository.RunRepository, punches repository.PunchRepository) ProcessorOption {
	return func(p *Processor) {
		p.runsRepo = runs
		p.punchesRepo = punches
	}
}

// NewProcessor builds a processor. Classifier events are reported to logger
// with the run's attributes attached.
func NewProcessor(
	logger *slog.Logger,
	source pages.Source,
	classifier *extract.Classifier,
	normalizer normalize.Normalizer,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:     logger,
		source:     source,
		classifier: classifier,
		normalizer: normalizer,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessPages folds the pages, in order, through the classifier with one
// state threaded across page boundaries and normalizes the records. A
// malformed date header stops the document.
func (p *Processor) ProcessPages(ctx context.Context, pgs []pages.Page) (Result, error) {
	return p.processPages(ctx, p.logger, pgs)
}

func (p *Processor) processPages(ctx context.Context, logger *slog.Logger, pgs []pages.Page) (Result, error) {
	res := Result{RunID: uuid.New(), Pages: len(pgs)}
	c := p.classifier.WithObserver(extract.NewLogObserver(logger))

	var (
		records []entity.PunchRecord
		st      extract.State
	)
	for _, pg := range pgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !pg.HasText() {
			logger.Warn("pages.empty", "page", pg.Number)
			res.EmptyPages = append(res.EmptyPages, pg.Number)
			continue
		}
		logger.Debug("pages.text", "page", pg.Number, "text", pg.Text)

		recs, next, err := c.Process(extract.SplitLines(pg.Number, pg.Text), st)
		if err != nil {
			logger.Error("processor.classify.failed", "page", pg.Number, "error", err)
			return res, err
		}
		records = append(records, recs...)
		st = next
	}

	res.Records = p.normalizer.Normalize(records)
	res.FinalDate = st.Date
	return res, nil
}

// ProcessFile extracts the pages of path and processes them. With a store
// configured the run is recorded as RUNNING first and finished as OK, EMPTY
// or FAILED; records are stored only for successful runs.
func (p *Processor) ProcessFile(ctx context.Context, path, contentHash string) (Result, error) {
	start := time.Now()

	runID := uuid.New()
	if p.runsRepo != nil {
		run, err := p.runsRepo.Start(ctx, path, contentHash)
		if err != nil {
			p.logger.Error("processor.run.start.failed", "source", path, "error", err)
			return Result{Source: path}, err
		}
		runID = run.ID
	}
	ctx = common.WithRunID(ctx, runID.String())
	ctx = common.WithSource(ctx, path)
	logger := p.logger.With("run_id", runID.String(), "source", path)

	pgs, err := p.source.Pages(ctx, path)
	if err != nil {
		logger.Error("processor.pages.failed", "error", err)
		p.finish(ctx, logger, runID, repository.RunOutcome{Status: constants.RunStatusFailed, ErrorMessage: err.Error()})
		return Result{RunID: runID, Source: path}, err
	}

	res, err := p.processPages(ctx, logger, pgs)
	res.RunID = runID
	res.Source = path
	if err != nil {
		p.finish(ctx, logger, runID, repository.RunOutcome{
			Status:       constants.RunStatusFailed,
			Pages:        res.Pages,
			EmptyPages:   len(res.EmptyPages),
			ErrorMessage: err.Error(),
		})
		return res, err
	}

	if p.punchesRepo != nil && len(res.Records) > 0 {
		if err := p.punchesRepo.InsertBatch(ctx, runID, res.Records); err != nil {
			logger.Error("processor.store.failed", "error", err)
			p.finish(ctx, logger, runID, repository.RunOutcome{
				Status:       constants.RunStatusFailed,
				Pages:        res.Pages,
				EmptyPages:   len(res.EmptyPages),
				ErrorMessage: err.Error(),
			})
			return res, err
		}
	}

	p.finish(ctx, logger, runID, repository.RunOutcome{
		Status:     res.Status(),
		Pages:      res.Pages,
		EmptyPages: len(res.EmptyPages),
		Records:    len(res.Records),
	})
	logger.Info("processor.document.ok",
		"status", res.Status(),
		"pages", res.Pages,
		"empty_pages", len(res.EmptyPages),
		"records", len(res.Records),
		"final_date", res.FinalDate,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) finish(ctx context.Context, logger *slog.Logger, runID uuid.UUID, out repository.RunOutcome) {
	if p.runsRepo == nil {
		return
	}
	// the run row must be closed even when ctx is what failed the document
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.runsRepo.Finish(fctx, runID, out); err != nil {
		logger.Error("processor.run.finish.failed", "status", out.Status, "error", err)
	}
}
