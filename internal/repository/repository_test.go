package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/common"
	"github.com/joseph-ayodele/punchlog/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrations are repeatable")
	return db
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost:5432/punch"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/punch"))
	assert.False(t, IsPostgresDSN("sqlite:runs.db"))
	assert.False(t, IsPostgresDSN("./runs.db"))
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), 0))
}

func TestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	runs := NewRunRepository(db, nil)

	run, err := runs.Start(ctx, "/logs/march.pdf", "abc123")
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusRunning), run.Status)

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/logs/march.pdf", got.SourcePath)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.Nil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)

	require.NoError(t, runs.Finish(ctx, run.ID, RunOutcome{
		Status:     constants.RunStatusOK,
		Pages:      3,
		EmptyPages: 1,
		Records:    42,
	}))
	got, err = runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.RunStatusOK), got.Status)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 1, got.EmptyPages)
	assert.Equal(t, 42, got.Records)
	assert.NotNil(t, got.FinishedAt)
}

func TestRunRepository_FailureMessage(t *testing.T) {
	ctx := context.Background()
	runs := NewRunRepository(openTestDB(t), nil)

	run, err := runs.Start(ctx, "/logs/bad.pdf", "")
	require.NoError(t, err)
	require.NoError(t, runs.Finish(ctx, run.ID, RunOutcome{Status: constants.RunStatusFailed, ErrorMessage: "malformed header"}))

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "malformed header", *got.ErrorMessage)
}

func TestRunRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	runs := NewRunRepository(openTestDB(t), nil)

	_, err := runs.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = runs.Finish(ctx, uuid.New(), RunOutcome{Status: constants.RunStatusOK})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRunRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	runs := NewRunRepository(openTestDB(t), nil)

	for i := 0; i < 3; i++ {
		_, err := runs.Start(ctx, fmt.Sprintf("/logs/%d.pdf", i), "")
		require.NoError(t, err)
	}
	got, err := runs.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := runs.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPunchRepository_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	runs := NewRunRepository(db, nil)
	punches := NewPunchRepository(db, nil)

	run, err := runs.Start(ctx, "/logs/march.pdf", "")
	require.NoError(t, err)

	var want []entity.PunchRecord
	for i := 0; i < insertChunk+7; i++ {
		dir := constants.DirectionIn
		if i%3 == 1 {
			dir = constants.DirectionOut
		} else if i%3 == 2 {
			dir = constants.DirectionUnknown
		}
		want = append(want, entity.PunchRecord{
			Date:      "01/03/2024",
			UserID:    fmt.Sprintf("E%04d", i),
			Name:      fmt.Sprintf("Worker %d", i),
			PunchTime: "08:15:00",
			Direction: dir,
		})
	}
	want[3].UserID, want[3].Name, want[3].PunchTime, want[3].Date = "", "", "", ""

	require.NoError(t, punches.InsertBatch(ctx, run.ID, want))

	got, err := punches.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := punches.ListByRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPunchRepository_EmptyBatch(t *testing.T) {
	punches := NewPunchRepository(openTestDB(t), nil)
	assert.NoError(t, punches.InsertBatch(context.Background(), uuid.New(), nil))
}

func TestPunchRepository_RequiresRun(t *testing.T) {
	punches := NewPunchRepository(openTestDB(t), nil)
	err := punches.InsertBatch(context.Background(), uuid.New(), []entity.PunchRecord{{PunchTime: "08:00:00", Direction: constants.DirectionUnknown}})
	assert.ErrorIs(t, err, common.ErrDatabase)
}
