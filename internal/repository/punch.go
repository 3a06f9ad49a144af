package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
)

const punchTable = "punch_record"

// insertChunk bounds the rows per INSERT so bind parameters stay well under
// driver limits.
const insertChunk = 500

type PunchRepository interface {
	InsertBatch(ctx context.Context, runID uuid.UUID, records []entity.PunchRecord) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.PunchRecord, error)
}

type punchRepo struct {
	db  *DB
	log *slog.Logger
}

func NewPunchRepository(db *DB, log *slog.Logger) PunchRepository {
	if log == nil {
		log = slog.Default()
	}
	return &punchRepo{db: db, log: log}
}

// InsertBatch stores records for a run in one transaction, keeping their order in seq.
func (r *punchRepo) InsertBatch(ctx context.Context, runID uuid.UUID, records []entity.PunchRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		ins := entsql.Dialect(r.db.Dialect).
			Insert(punchTable).
			Columns("run_id", "seq", "punch_date", "user_id", "name", "punch_time", "direction")
		for i := start; i < end; i++ {
			rec := records[i]
			ins.Values(runID.String(), i, rec.Date, rec.UserID, rec.Name, rec.PunchTime, string(rec.Direction))
		}
		q, args := ins.Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			r.log.Error("punch_record insert failed", "run_id", runID, "from", start, "err", err)
			return fmt.Errorf("%w: insert punches: %v", common.ErrDatabase, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Debug("punch_record stored", "run_id", runID, "records", len(records))
	return nil
}

func (r *punchRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.PunchRecord, error) {
	d := entsql.Dialect(r.db.Dialect)
	q, args := d.Select("punch_date", "user_id", "name", "punch_time", "direction").
		From(d.Table(punchTable)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("seq").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query punches: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.PunchRecord
	for rows.Next() {
		var (
			rec entity.PunchRecord
			dir string
		)
		if err := rows.Scan(&rec.Date, &rec.UserID, &rec.Name, &rec.PunchTime, &dir); err != nil {
			return nil, fmt.Errorf("%w: scan punch: %v", common.ErrDatabase, err)
		}
		rec.Direction = constants.ParseDirection(dir)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate punches: %v", common.ErrDatabase, err)
	}
	return out, nil
}
