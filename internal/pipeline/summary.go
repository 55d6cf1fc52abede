package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

// SummaryStage derives both machine-readable summary documents from the
// narrative report. Results are never persisted: each call recomputes both
// documents, bounded only by the report stage's own cache.
type SummaryStage struct {
	reports       *ReportStage
	client        ports.CompletionClient
	conciseModel  string
	extendedModel string
	logger        *slog.Logger
}

// NewSummaryStage wires the summary stage on top of the report stage.
func NewSummaryStage(reports *ReportStage, client ports.CompletionClient, conciseModel, extendedModel string, logger *slog.Logger) *SummaryStage {
	return &SummaryStage{
		reports:       reports,
		client:        client,
		conciseModel:  conciseModel,
		extendedModel: extendedModel,
		logger:        logger,
	}
}

// Generate produces the concise and extended summary documents. The force
// flag is forwarded unchanged into the report stage. Both completions run on
// every call; a failure in either fails the stage.
func (s *SummaryStage) Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool) (*domain.SummaryDocuments, error) {
	report, err := s.reports.Generate(ctx, project, comments, forceRegenerate, "")
	if err != nil {
		return nil, fmt.Errorf("narrative for summary: %w", err)
	}

	concise, err := s.complete(ctx, s.conciseModel, buildConciseSummaryPrompt(project, report.Narrative))
	if err != nil {
		return nil, fmt.Errorf("concise summary: %w", err)
	}

	extended, err := s.complete(ctx, s.extendedModel, buildExtendedSummaryPrompt(project, comments, report.Narrative))
	if err != nil {
		return nil, fmt.Errorf("extended summary: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("summary documents generated", "project", project.ID)
	}
	return &domain.SummaryDocuments{
		ProjectName: project.Name,
		Concise:     concise,
		Extended:    extended,
	}, nil
}

func (s *SummaryStage) complete(ctx context.Context, model, prompt string) (string, error) {
	completion, err := s.client.Complete(ctx, model, prompt)
	if err != nil {
		return "", err
	}
	text := sanitizeCompletion(completion)
	if text == "" {
		return "", domain.ErrGenerationFailed
	}
	return text, nil
}
