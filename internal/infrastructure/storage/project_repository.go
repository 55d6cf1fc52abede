package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

// ProjectRepository reads projects, their questions, and comments from
// Postgres for the boundary layer.
type ProjectRepository struct {
	db *sql.DB
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository wires a sql.DB implementation.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetProject loads one project with its ordered questions and stances.
// Returns domain.ErrNotFound when the project does not exist.
func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	query, args, err := psql.
		Select("name", "description", "extraction_topic", "context").
		From("projects").
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build project query: %w", err)
	}

	project := domain.Project{ID: projectID}
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&project.Name, &project.Description, &project.ExtractionTopic, &project.Context)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}

	project.Questions, err = r.listQuestions(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &project, nil
}

func (r *ProjectRepository) listQuestions(ctx context.Context, projectID string) ([]domain.Question, error) {
	query, args, err := psql.
		Select("id", "text", "stances").
		From("questions").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build questions query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var question domain.Question
		if err := rows.Scan(&question.ID, &question.Text, pq.Array(&question.Stances)); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, nil
}

// ListComments loads every comment attached to a project.
func (r *ProjectRepository) ListComments(ctx context.Context, projectID string) ([]domain.Comment, error) {
	query, args, err := psql.
		Select("id", "source_type", "content").
		From("comments").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build comments query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		comment := domain.Comment{ProjectID: projectID}
		if err := rows.Scan(&comment.ID, &comment.SourceType, &comment.Content); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}
