package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
)

const runTable = "extract_run"

var runColumns = []string{
	"id", "source_path", "content_hash", "status", "pages", "empty_pages",
	"records", "error_message", "started_at", "finished_at",
}

// RunOutcome is what a finished run records about itself.
type RunOutcome struct {
	Status       constants.RunStatus
	Pages        int
	EmptyPages   int
	Records      int
	ErrorMessage string
}

type RunRepository interface {
	Start(ctx context.Context, sourcePath, contentHash string) (*entity.ExtractRun, error)
	Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractRun, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractRun, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

func (r *runRepo) Start(ctx context.Context, sourcePath, contentHash string) (*entity.ExtractRun, error) {
	run := &entity.ExtractRun{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Status:      string(constants.RunStatusRunning),
		StartedAt:   time.Now().UTC(),
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(runTable).
		Columns("id", "source_path", "content_hash", "status", "started_at").
		Values(run.ID.String(), run.SourcePath, run.ContentHash, run.Status, run.StartedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("extract_run start failed", "source", sourcePath, "err", err)
		return nil, fmt.Errorf("%w: start run: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_run started", "run_id", run.ID, "source", sourcePath)
	return run, nil
}

func (r *runRepo) Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error {
	upd := entsql.Dialect(r.db.Dialect).
		Update(runTable).
		Set("status", string(out.Status)).
		Set("pages", out.Pages).
		Set("empty_pages", out.EmptyPages).
		Set("records", out.Records).
		Set("finished_at", time.Now().UTC())
	if out.ErrorMessage != "" {
		upd.Set("error_message", out.ErrorMessage)
	}
	q, args := upd.Where(entsql.EQ("id", id.String())).Query()

	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("extract_run finish failed", "run_id", id, "err", err)
		return fmt.Errorf("%w: finish run: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("extract_run finished", "run_id", id, "status", out.Status, "records", out.Records)
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ExtractRun, error) {
	d := entsql.Dialect(r.db.Dialect)
	q, args := d.Select(runColumns...).
		From(d.Table(runTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return runs[0], nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractRun, error) {
	if limit <= 0 {
		limit = 20
	}
	d := entsql.Dialect(r.db.Dialect)
	q, args := d.Select(runColumns...).
		From(d.Table(runTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *runRepo) query(ctx context.Context, q string, args []any) ([]*entity.ExtractRun, error) {
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query runs: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.ExtractRun
	for rows.Next() {
		var (
			run      entity.ExtractRun
			id       string
			errMsg   sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&id, &run.SourcePath, &run.ContentHash, &run.Status, &run.Pages,
			&run.EmptyPages, &run.Records, &errMsg, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", common.ErrDatabase, err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: run id %q: %v", common.ErrDatabase, id, err)
		}
		if errMsg.Valid {
			run.ErrorMessage = &errMsg.String
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: iterate runs: %v", common.ErrDatabase, err)
	}
	return out, nil
}
