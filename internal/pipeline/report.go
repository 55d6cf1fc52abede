package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

// ReportStage produces and caches the project-wide narrative report.
type ReportStage struct {
	stances *StanceStage
	client  ports.CompletionClient
	store   ports.ProjectReportStore
	model   string
	logger  *slog.Logger
	group   singleflight.Group
}

// NewReportStage wires the report stage on top of the stance stage.
func NewReportStage(stances *StanceStage, client ports.CompletionClient, store ports.ProjectReportStore, model string, logger *slog.Logger) *ReportStage {
	return &ReportStage{
		stances: stances,
		client:  client,
		store:   store,
		model:   model,
		logger:  logger,
	}
}

// Generate returns the narrative report for a project, serving it from
// storage unless regeneration is forced. A forced regeneration reuses
// whatever stance artifacts already exist: the force flag is never
// propagated into the stance stage, so stance breakdowns are only
// invalidated through their own entry point.
func (r *ReportStage) Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.ProjectReportArtifact, error) {
	result, err, _ := r.group.Do(project.ID, func() (any, error) {
		return r.generate(ctx, project, comments, forceRegenerate, customPrompt)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.ProjectReportArtifact), nil
}

func (r *ReportStage) generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.ProjectReportArtifact, error) {
	existing, err := r.store.Get(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load project report: %v", domain.ErrStore, err)
	}
	if existing != nil && !forceRegenerate {
		r.debug("project report served from store", "project", project.ID)
		return existing, nil
	}

	analyses, err := r.analyzeQuestions(ctx, project, comments, customPrompt)
	if err != nil {
		return nil, err
	}

	prompt := buildReportPrompt(project, analyses, customPrompt)
	completion, err := r.client.Complete(ctx, r.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("report completion: %w", err)
	}

	narrative := sanitizeCompletion(completion)
	if narrative == "" {
		return nil, domain.ErrGenerationFailed
	}

	artifact := domain.ProjectReportArtifact{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Narrative:   narrative,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := r.store.Upsert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("%w: persist project report: %v", domain.ErrStore, err)
	}

	r.debug("project report generated", "project", project.ID, "questions", len(project.Questions))
	return &artifact, nil
}

// analyzeQuestions fans out over every question concurrently and joins on
// all of them. Any branch failure fails the aggregation; nothing is
// persisted at this level on a partial result.
func (r *ReportStage) analyzeQuestions(ctx context.Context, project domain.Project, comments []domain.Comment, customPrompt string) ([]questionAnalysis, error) {
	analyses := make([]questionAnalysis, len(project.Questions))

	g, gctx := errgroup.WithContext(ctx)
	for i, question := range project.Questions {
		g.Go(func() error {
			artifact, err := r.stances.Analyze(gctx, StanceRequest{
				ProjectID:       project.ID,
				QuestionID:      question.ID,
				QuestionText:    question.Text,
				Stances:         question.Stances,
				Comments:        comments,
				ForceRegenerate: false,
				CustomPrompt:    customPrompt,
			})
			if err != nil {
				return fmt.Errorf("question %s: %w", question.ID, err)
			}
			analyses[i] = questionAnalysis{
				Question:     artifact.QuestionText,
				Distribution: artifact.Distribution,
				Analysis:     artifact.Analysis,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPartialAggregation, err)
	}

	return analyses, nil
}

func (r *ReportStage) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
