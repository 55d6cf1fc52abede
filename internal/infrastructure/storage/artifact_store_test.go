package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsightReporter/internal/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestStanceAnalysisStoreGet(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStanceAnalysisStore(db)

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT question_text, distribution, analysis, updated_at FROM stance_analyses").
		WithArgs("p1", "q1").
		WillReturnRows(sqlmock.NewRows([]string{"question_text", "distribution", "analysis", "updated_at"}).
			AddRow("Should X?", []byte(`{"Yes":3,"No":1}`), "mostly supportive", updated))

	artifact, err := store.Get(context.Background(), "p1", "q1")
	require.NoError(t, err)

	assert.Equal(t, "Should X?", artifact.QuestionText)
	assert.Equal(t, map[string]int{"Yes": 3, "No": 1}, artifact.Distribution)
	assert.Equal(t, updated, artifact.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStanceAnalysisStoreGetAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStanceAnalysisStore(db)

	mock.ExpectQuery("SELECT question_text, distribution, analysis, updated_at FROM stance_analyses").
		WithArgs("p1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"question_text", "distribution", "analysis", "updated_at"}))

	artifact, err := store.Get(context.Background(), "p1", "missing")
	require.NoError(t, err)
	assert.Nil(t, artifact, "absence is nil, not an error")
}

func TestStanceAnalysisStoreUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStanceAnalysisStore(db)

	artifact := domain.StanceAnalysisArtifact{
		ProjectID:    "p1",
		QuestionID:   "q1",
		QuestionText: "Should X?",
		Distribution: map[string]int{"Yes": 3},
		Analysis:     "supportive",
		UpdatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO stance_analyses").
		WithArgs("p1", "q1", "Should X?", []byte(`{"Yes":3}`), "supportive", artifact.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Upsert(context.Background(), artifact))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectReportStoreRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProjectReportStore(db)

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	artifact := domain.ProjectReportArtifact{
		ProjectID:   "p1",
		ProjectName: "Transit Reform",
		Narrative:   "# Report",
		UpdatedAt:   updated,
	}

	mock.ExpectExec("INSERT INTO project_reports").
		WithArgs("p1", "Transit Reform", "# Report", updated).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT project_name, narrative, updated_at FROM project_reports").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"project_name", "narrative", "updated_at"}).
			AddRow("Transit Reform", "# Report", updated))

	require.NoError(t, store.Upsert(context.Background(), artifact))

	loaded, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, &artifact, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisualReportStoreRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewVisualReportStore(db)

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	artifact := domain.VisualReportArtifact{
		ProjectID:   "p1",
		ProjectName: "Transit Reform",
		HTML:        "<html></html>",
		UpdatedAt:   updated,
	}

	mock.ExpectExec("INSERT INTO visual_reports").
		WithArgs("p1", "Transit Reform", "<html></html>", updated).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT project_name, html, updated_at FROM visual_reports").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"project_name", "html", "updated_at"}).
			AddRow("Transit Reform", "<html></html>", updated))

	require.NoError(t, store.Upsert(context.Background(), artifact))

	loaded, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, &artifact, loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
