package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
	"github.com/joseph-ayodele/punchlog/internal/extract"
	"github.com/joseph-ayodele/punchlog/internal/normalize"
	"github.com/joseph-ayodele/punchlog/internal/pages"
	"github.com/joseph-ayodele/punchlog/internal/repository"
)

type staticSource map[string][]pages.Page

func (s staticSource) Pages(_ context.Context, path string) ([]pages.Page, error) {
	pgs, ok := s[path]
	if !ok {
		return nil, common.NewAppError(common.CodeUnsupportedFormat, path, common.ErrUnsupportedFormat)
	}
	return pgs, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newProcessor(t *testing.T, src pages.Source, opts ...ProcessorOption) *Processor {
	t.Helper()
	c, err := extract.NewClassifier(extract.DefaultRules(), nil)
	require.NoError(t, err)
	return NewProcessor(quietLogger(), src, c, normalize.Default(), opts...)
}

func openStore(t *testing.T) (*repository.DB, repository.RunRepository, repository.PunchRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db, repository.NewRunRepository(db, quietLogger()), repository.NewPunchRepository(db, quietLogger())
}

func TestProcessPages_DateCarriesAcrossPages(t *testing.T) {
	p := newProcessor(t, nil)

	res, err := p.ProcessPages(context.Background(), []pages.Page{
		{Number: 1, Text: "ATTENDANCE LOG\n01/03/2024\nA1234 John Smith 08:15:00 IN\nB5678 Mary Jones 08:20:11 OUT\n"},
		{Number: 2, Text: "   C9012  |  Ravi Kumar  |  17:45:00  |  OUT"},
	})
	require.NoError(t, err)

	assert.Equal(t, []entity.PunchRecord{
		{Date: "01/03/2024", UserID: "A1234", Name: "John Smith", PunchTime: "08:15:00", Direction: constants.DirectionIn},
		{Date: "01/03/2024", UserID: "B5678", Name: "Mary Jones", PunchTime: "08:20:11", Direction: constants.DirectionOut},
		{Date: "01/03/2024", UserID: "C9012", Name: "|  Ravi Kumar  |", PunchTime: "17:45:00", Direction: constants.DirectionOut},
	}, res.Records)
	assert.Equal(t, 2, res.Pages)
	assert.Empty(t, res.EmptyPages)
	assert.Equal(t, "01/03/2024", res.FinalDate)
}

func TestProcessPages_EmptyPagesAreCounted(t *testing.T) {
	p := newProcessor(t, nil)

	res, err := p.ProcessPages(context.Background(), []pages.Page{
		{Number: 1, Text: "01/03/2024"},
		{Number: 2, Text: " \n\t\n"},
		{Number: 3, Text: "A1234 John 08:00:00 IN"},
		{Number: 4, Text: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, res.EmptyPages)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "01/03/2024", res.Records[0].Date)
	assert.Equal(t, constants.RunStatusOK, res.Status())
}

func TestProcessPages_NoHeaderMeansNoRecords(t *testing.T) {
	p := newProcessor(t, nil)

	res, err := p.ProcessPages(context.Background(), []pages.Page{{Number: 1, Text: "A1234 John 08:00:00 IN"}})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.FinalDate)
	assert.Equal(t, constants.RunStatusEmpty, res.Status())
}

func TestProcessPages_MalformedHeaderStops(t *testing.T) {
	p := newProcessor(t, nil)

	_, err := p.ProcessPages(context.Background(), []pages.Page{
		{Number: 1, Text: "01/03/2024\nA1234 John 08:00:00 IN"},
		{Number: 2, Text: "31/04/2024\nA1234 John 17:00:00 OUT"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedDateHeader)
	assert.Contains(t, err.Error(), "page 2 line 1")
}

func TestProcessPages_NormalizesTimes(t *testing.T) {
	p := newProcessor(t, nil)

	res, err := p.ProcessPages(context.Background(), []pages.Page{{Number: 1, Text: "01/03/2024\nA1234 John 25:61:00 IN"}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Empty(t, res.Records[0].PunchTime)
	assert.Equal(t, "A1234", res.Records[0].UserID)
}

func TestProcessPages_CanceledContext(t *testing.T) {
	p := newProcessor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessPages(ctx, []pages.Page{{Number: 1, Text: "01/03/2024"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFile_WithoutStore(t *testing.T) {
	src := staticSource{"/logs/march.txt": {{Number: 1, Text: "01/03/2024\nA1234 John 08:00:00 IN"}}}
	p := newProcessor(t, src)

	res, err := p.ProcessFile(context.Background(), "/logs/march.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "/logs/march.txt", res.Source)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Records, 1)
}

func TestProcessFile_PersistsRun(t *testing.T) {
	ctx := context.Background()
	_, runs, punches := openStore(t)
	src := staticSource{"/logs/march.txt": {
		{Number: 1, Text: "01/03/2024\nA1234 John 08:00:00 IN\nB5678 Mary 08:01:00"},
		{Number: 2, Text: ""},
	}}
	p := newProcessor(t, src, WithStore(runs, punches))

	res, err := p.ProcessFile(ctx, "/logs/march.txt", "cafe")
	require.NoError(t, err)

	run, err := runs.GetByID(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusOK), run.Status)
	assert.Equal(t, "cafe", run.ContentHash)
	assert.Equal(t, 2, run.Pages)
	assert.Equal(t, 1, run.EmptyPages)
	assert.Equal(t, 2, run.Records)

	stored, err := punches.ListByRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Records, stored)
}

func TestProcessFile_EmptyRun(t *testing.T) {
	ctx := context.Background()
	_, runs, punches := openStore(t)
	src := staticSource{"/logs/blank.txt": {{Number: 1, Text: "nothing here"}}}
	p := newProcessor(t, src, WithStore(runs, punches))

	res, err := p.ProcessFile(ctx, "/logs/blank.txt", "")
	require.NoError(t, err)

	run, err := runs.GetByID(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusEmpty), run.Status)
	assert.Zero(t, run.Records)
}

func TestProcessFile_FailuresAreRecorded(t *testing.T) {
	ctx := context.Background()
	_, runs, punches := openStore(t)
	src := staticSource{"/logs/bad.txt": {{Number: 1, Text: "01/13/2024\nA1234 John 08:00:00 IN"}}}
	p := newProcessor(t, src, WithStore(runs, punches))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"malformed header", "/logs/bad.txt", common.ErrMalformedDateHeader},
		{"source error", "/logs/missing.docx", common.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.ProcessFile(ctx, tt.path, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			run, err := runs.GetByID(ctx, res.RunID)
			require.NoError(t, err)
			assert.Equal(t, string(constants.RunStatusFailed), run.Status)
			require.NotNil(t, run.ErrorMessage)
			assert.NotEmpty(t, *run.ErrorMessage)

			stored, err := punches.ListByRun(ctx, res.RunID)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}
