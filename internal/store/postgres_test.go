package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/insightbr/socialharvest/internal/harvest"
)

func sampleRecord() harvest.RunRecord {
	started := time.Unix(1717243200, 0).UTC()
	return harvest.RunRecord{
		ID:        "run-1",
		QueryText: "curso de marketing",
		State:     harvest.StateSearching,
		StartedAt: started,
		Statistics: harvest.RunStatistics{
			TotalSearches: 3,
		},
	}
}

func TestCreateRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "runs")
	require.NoError(t, err)

	rec := sampleRecord()
	stats, err := json.Marshal(rec.Statistics)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(rec.ID, rec.QueryText, string(rec.State), rec.Degraded, rec.ItemCount,
			stats, rec.ArtifactURI, rec.StartedAt, rec.FinishedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateRun(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRunMissingRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "runs")
	require.NoError(t, err)

	rec := sampleRecord()
	stats, err := json.Marshal(rec.Statistics)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE runs SET").
		WithArgs(rec.ID, string(rec.State), rec.Degraded, rec.ItemCount,
			stats, rec.ArtifactURI, rec.FinishedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateRun(context.Background(), rec)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunScansRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "runs")
	require.NoError(t, err)

	rec := sampleRecord()
	stats, err := json.Marshal(rec.Statistics)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{
		"id", "query_text", "state", "degraded", "item_count",
		"statistics", "artifact_uri", "started_at", "finished_at",
	}).AddRow(rec.ID, rec.QueryText, string(rec.State), rec.Degraded, rec.ItemCount,
		stats, rec.ArtifactURI, rec.StartedAt, rec.FinishedAt)

	mock.ExpectQuery("SELECT id, query_text, state").
		WithArgs(rec.ID).
		WillReturnRows(rows)

	got, err := store.GetRun(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, harvest.StateSearching, got.State)
	require.Equal(t, 3, got.Statistics.TotalSearches)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresStoreWithPool(nil, "runs")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "runs; DROP TABLE runs")
	require.Error(t, err)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	rec := sampleRecord()

	require.NoError(t, s.CreateRun(context.Background(), rec))
	require.Error(t, s.CreateRun(context.Background(), rec), "duplicate id")

	rec.State = harvest.StateDone
	require.NoError(t, s.UpdateRun(context.Background(), rec))

	got, err := s.GetRun(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, harvest.StateDone, got.State)

	_, err = s.GetRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateRun(context.Background(), harvest.RunRecord{ID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)
}
