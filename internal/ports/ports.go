package ports

import (
	"context"

	"InsightReporter/internal/domain"
)

// CompletionClient sends a prompt to the external text-generation service.
type CompletionClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// StanceAnalysisStore persists per-question stance breakdowns.
// Get returns nil when no artifact exists for the key.
type StanceAnalysisStore interface {
	Get(ctx context.Context, projectID, questionID string) (*domain.StanceAnalysisArtifact, error)
	Upsert(ctx context.Context, artifact domain.StanceAnalysisArtifact) error
}

// ProjectReportStore persists project-wide narratives.
type ProjectReportStore interface {
	Get(ctx context.Context, projectID string) (*domain.ProjectReportArtifact, error)
	Upsert(ctx context.Context, artifact domain.ProjectReportArtifact) error
}

// VisualReportStore persists HTML renderings of project narratives.
type VisualReportStore interface {
	Get(ctx context.Context, projectID string) (*domain.VisualReportArtifact, error)
	Upsert(ctx context.Context, artifact domain.VisualReportArtifact) error
}

// ProjectRepository supplies read-only project data to the boundary layer.
type ProjectRepository interface {
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListComments(ctx context.Context, projectID string) ([]domain.Comment, error)
}
