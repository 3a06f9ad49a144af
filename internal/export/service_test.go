package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
	"github.com/joseph-ayodele/punchlog/internal/repository"
)

func open(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteXLSX(t *testing.T) {
	b, err := WriteXLSX([]entity.PunchRecord{
		{Date: "01/03/2024", UserID: "A1234", Name: "John Smith", PunchTime: "08:15:00", Direction: constants.DirectionIn},
		{Date: "01/03/2024", UserID: "B5678", Name: "Mary", PunchTime: "", Direction: constants.DirectionUnknown},
		{Date: "", UserID: "", Name: "", PunchTime: "17:00:00", Direction: constants.DirectionOut},
	})
	require.NoError(t, err)

	f := open(t, b)
	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "User ID", "Name", "Punch Time", "I/O Type"}, rows[0])
	assert.Equal(t, []string{"01/03/2024", "A1234", "John Smith", "08:15:00", "IN"}, rows[1])
	assert.Equal(t, []string{"01/03/2024", "B5678", "Mary"}, rows[2][:3])
	for _, cell := range []string{"D3", "E3"} {
		v, err := f.GetCellValue(DefaultSheet, cell)
		require.NoError(t, err)
		assert.Empty(t, v, cell)
	}
	assert.Equal(t, []string{"", "", "", "17:00:00", "OUT"}, rows[3])

	styleID, err := f.GetCellStyle(DefaultSheet, "E1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteXLSX_HeaderOnlyWhenEmpty(t *testing.T) {
	b, err := WriteXLSX(nil)
	require.NoError(t, err)

	rows, err := open(t, b).GetRows(DefaultSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{Headers}, rows)
}

func TestWriteWorkbook_SheetPerDocument(t *testing.T) {
	b, err := WriteWorkbook([]Sheet{
		{Name: "/logs/march.pdf", Records: []entity.PunchRecord{{Date: "01/03/2024", UserID: "A1234", PunchTime: "08:00:00", Direction: constants.DirectionIn}}},
		{Name: "/other/march.txt"},
		{Name: "/logs/[q1]: april?.pdf"},
	})
	require.NoError(t, err)

	f := open(t, b)
	assert.Equal(t, []string{"march", "march (2)", "_q1__ april_"}, f.GetSheetList())

	rows, err := f.GetRows("march")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSheetName(t *testing.T) {
	taken := map[string]bool{}
	long := strings.Repeat("x", 40) + ".pdf"

	assert.Equal(t, "Punches", SheetName("", taken))
	assert.Equal(t, "punches (2)", SheetName("punches", taken))
	first := SheetName(long, taken)
	assert.Equal(t, strings.Repeat("x", 31), first)
	second := SheetName(long, taken)
	assert.Equal(t, strings.Repeat("x", 27)+" (2)", second)
	assert.Equal(t, "a_b", SheetName("'a*b'.txt", taken))
}

func TestService_ExportRunsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	runs := repository.NewRunRepository(db, nil)
	punches := repository.NewPunchRepository(db, nil)

	run, err := runs.Start(ctx, "/logs/march.pdf", "")
	require.NoError(t, err)
	require.NoError(t, punches.InsertBatch(ctx, run.ID, []entity.PunchRecord{
		{Date: "01/03/2024", UserID: "A1234", Name: "John", PunchTime: "08:00:00", Direction: constants.DirectionIn},
		{Date: "01/03/2024", UserID: "A1234", Name: "John", PunchTime: "17:00:00", Direction: constants.DirectionOut},
	}))

	svc := NewService(runs, punches, nil)
	b, err := svc.ExportRunsXLSX(ctx, []uuid.UUID{run.ID})
	require.NoError(t, err)

	rows, err := open(t, b).GetRows("march")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "17:00:00", rows[2][3])

	_, err = svc.ExportRunsXLSX(ctx, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_ExportRecentXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	runs := repository.NewRunRepository(db, nil)
	punches := repository.NewPunchRepository(db, nil)
	svc := NewService(runs, punches, nil)

	b, n, err := svc.ExportRecentXLSX(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, b)

	ok, err := runs.Start(ctx, "/logs/march.pdf", "")
	require.NoError(t, err)
	require.NoError(t, punches.InsertBatch(ctx, ok.ID, []entity.PunchRecord{
		{Date: "01/03/2024", UserID: "A1234", Name: "John", PunchTime: "08:00:00", Direction: constants.DirectionIn},
	}))
	require.NoError(t, runs.Finish(ctx, ok.ID, repository.RunOutcome{Status: constants.RunStatusOK, Pages: 1, Records: 1}))

	failed, err := runs.Start(ctx, "/logs/april.pdf", "")
	require.NoError(t, err)
	require.NoError(t, runs.Finish(ctx, failed.ID, repository.RunOutcome{Status: constants.RunStatusFailed, ErrorMessage: "boom"}))

	b, n, err = svc.ExportRecentXLSX(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f := open(t, b)
	assert.Equal(t, []string{"march"}, f.GetSheetList())
	v, err := f.GetCellValue("march", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A1234", v)
}
