package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// StanceAnalysisStore persists stance breakdowns in Postgres, one row per
// (project, question) key.
type StanceAnalysisStore struct {
	db *sql.DB
}

var _ ports.StanceAnalysisStore = (*StanceAnalysisStore)(nil)

// NewStanceAnalysisStore wires a sql.DB implementation.
func NewStanceAnalysisStore(db *sql.DB) *StanceAnalysisStore {
	return &StanceAnalysisStore{db: db}
}

// Get loads the stance analysis for a key, or nil when absent.
func (s *StanceAnalysisStore) Get(ctx context.Context, projectID, questionID string) (*domain.StanceAnalysisArtifact, error) {
	query, args, err := psql.
		Select("question_text", "distribution", "analysis", "updated_at").
		From("stance_analyses").
		Where(sq.Eq{"project_id": projectID, "question_id": questionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stance query: %w", err)
	}

	artifact := domain.StanceAnalysisArtifact{ProjectID: projectID, QuestionID: questionID}
	var rawDistribution []byte
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&artifact.QuestionText, &rawDistribution, &artifact.Analysis, &artifact.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stance analysis: %w", err)
	}

	if err := json.Unmarshal(rawDistribution, &artifact.Distribution); err != nil {
		return nil, fmt.Errorf("decode stance distribution: %w", err)
	}

	return &artifact, nil
}

// Upsert replaces the stance analysis for its key.
func (s *StanceAnalysisStore) Upsert(ctx context.Context, artifact domain.StanceAnalysisArtifact) error {
	rawDistribution, err := json.Marshal(artifact.Distribution)
	if err != nil {
		return fmt.Errorf("encode stance distribution: %w", err)
	}

	query, args, err := psql.
		Insert("stance_analyses").
		Columns("project_id", "question_id", "question_text", "distribution", "analysis", "updated_at").
		Values(artifact.ProjectID, artifact.QuestionID, artifact.QuestionText, rawDistribution, artifact.Analysis, artifact.UpdatedAt).
		Suffix(`ON CONFLICT (project_id, question_id) DO UPDATE
                SET question_text = EXCLUDED.question_text,
                    distribution = EXCLUDED.distribution,
                    analysis = EXCLUDED.analysis,
                    updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build stance upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert stance analysis: %w", err)
	}
	return nil
}

// ProjectReportStore persists project narratives, one row per project.
type ProjectReportStore struct {
	db *sql.DB
}

var _ ports.ProjectReportStore = (*ProjectReportStore)(nil)

// NewProjectReportStore wires a sql.DB implementation.
func NewProjectReportStore(db *sql.DB) *ProjectReportStore {
	return &ProjectReportStore{db: db}
}

// Get loads the narrative report for a project, or nil when absent.
func (s *ProjectReportStore) Get(ctx context.Context, projectID string) (*domain.ProjectReportArtifact, error) {
	query, args, err := psql.
		Select("project_name", "narrative", "updated_at").
		From("project_reports").
		Where(sq.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report query: %w", err)
	}

	artifact := domain.ProjectReportArtifact{ProjectID: projectID}
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&artifact.ProjectName, &artifact.Narrative, &artifact.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query project report: %w", err)
	}

	return &artifact, nil
}

// Upsert replaces the narrative report for its project.
func (s *ProjectReportStore) Upsert(ctx context.Context, artifact domain.ProjectReportArtifact) error {
	query, args, err := psql.
		Insert("project_reports").
		Columns("project_id", "project_name", "narrative", "updated_at").
		Values(artifact.ProjectID, artifact.ProjectName, artifact.Narrative, artifact.UpdatedAt).
		Suffix(`ON CONFLICT (project_id) DO UPDATE
                SET project_name = EXCLUDED.project_name,
                    narrative = EXCLUDED.narrative,
                    updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build report upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project report: %w", err)
	}
	return nil
}

// VisualReportStore persists HTML renderings, one row per project.
type VisualReportStore struct {
	db *sql.DB
}

var _ ports.VisualReportStore = (*VisualReportStore)(nil)

// NewVisualReportStore wires a sql.DB implementation.
func NewVisualReportStore(db *sql.DB) *VisualReportStore {
	return &VisualReportStore{db: db}
}

// Get loads the visual report for a project, or nil when absent.
func (s *VisualReportStore) Get(ctx context.Context, projectID string) (*domain.VisualReportArtifact, error) {
	query, args, err := psql.
		Select("project_name", "html", "updated_at").
		From("visual_reports").
		Where(sq.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build visual query: %w", err)
	}

	artifact := domain.VisualReportArtifact{ProjectID: projectID}
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&artifact.ProjectName, &artifact.HTML, &artifact.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query visual report: %w", err)
	}

	return &artifact, nil
}

// Upsert replaces the visual report for its project.
func (s *VisualReportStore) Upsert(ctx context.Context, artifact domain.VisualReportArtifact) error {
	query, args, err := psql.
		Insert("visual_reports").
		Columns("project_id", "project_name", "html", "updated_at").
		Values(artifact.ProjectID, artifact.ProjectName, artifact.HTML, artifact.UpdatedAt).
		Suffix(`ON CONFLICT (project_id) DO UPDATE
                SET project_name = EXCLUDED.project_name,
                    html = EXCLUDED.html,
                    updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build visual upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert visual report: %w", err)
	}
	return nil
}
