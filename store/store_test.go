package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/database"
	"github.com/formwise/formwise/model"
)

func testRepository(t *testing.T) (Repository, *sql.DB) {
	t.Helper()
	db, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "formwise.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db), db
}

func record(id, title string) model.SubmissionRecord {
	return model.SubmissionRecord{
		ID:          id,
		FormTitle:   title,
		SubmittedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		DataSchema: model.DataSchema{
			SchemaVersion: "1.0.0",
			FormTitle:     title,
			Fields: []model.DataSchemaField{
				{ID: "q1", Label: "Q1", Type: "string", AnalysisHint: "text_summary"},
			},
		},
		FormData: map[string]any{"q1": "hello"},
	}
}

func TestLoadEmpty(t *testing.T) {
	repo, _ := testRepository(t)

	submissions, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, submissions)
}

func TestSaveAllAndLoad(t *testing.T) {
	repo, _ := testRepository(t)
	ctx := context.Background()

	first := record("a_1", "Survey A")
	second := record("b_1", "Survey B")
	require.NoError(t, repo.SaveAll(ctx, []model.SubmissionRecord{first, second}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// insertion order survives the round trip
	assert.Equal(t, "a_1", loaded[0].ID)
	assert.Equal(t, "b_1", loaded[1].ID)
	assert.Equal(t, "Survey A", loaded[0].FormTitle)
	assert.True(t, first.SubmittedAt.Equal(loaded[0].SubmittedAt))
	assert.Equal(t, map[string]any{"q1": "hello"}, loaded[0].FormData)
	assert.Equal(t, first.DataSchema, loaded[0].DataSchema)
}

func TestSaveAllRewritesWholesale(t *testing.T) {
	repo, _ := testRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAll(ctx, []model.SubmissionRecord{
		record("a_1", "Survey A"),
		record("a_2", "Survey A"),
	}))
	require.NoError(t, repo.SaveAll(ctx, []model.SubmissionRecord{
		record("b_1", "Survey B"),
	}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b_1", loaded[0].ID)
}

func TestSaveAllEmptyClears(t *testing.T) {
	repo, _ := testRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAll(ctx, []model.SubmissionRecord{record("a_1", "Survey A")}))
	require.NoError(t, repo.SaveAll(ctx, nil))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadSkipsCorruptPayload(t *testing.T) {
	repo, db := testRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveAll(ctx, []model.SubmissionRecord{record("a_1", "Survey A")}))
	_, err := db.Exec(`
		INSERT INTO submission (id, form_title, submitted_at, payload)
		VALUES ('bad_1', 'Survey A', '2024-05-01T10:00:00.000Z', '{not json')`)
	require.NoError(t, err)

	// the corrupted row is skipped, not fatal
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a_1", loaded[0].ID)

	// and the next rewrite flushes it out entirely
	require.NoError(t, repo.SaveAll(ctx, loaded))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}
