package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

// VisualStage produces and caches a styled HTML rendering of the narrative.
type VisualStage struct {
	reports  *ReportStage
	client   ports.CompletionClient
	store    ports.VisualReportStore
	model    string
	template VisualTemplate
	logger   *slog.Logger
	group    singleflight.Group
}

// NewVisualStage wires the visual stage on top of the report stage.
func NewVisualStage(reports *ReportStage, client ports.CompletionClient, store ports.VisualReportStore, model string, template VisualTemplate, logger *slog.Logger) *VisualStage {
	return &VisualStage{
		reports:  reports,
		client:   client,
		store:    store,
		model:    model,
		template: template,
		logger:   logger,
	}
}

// Generate returns the HTML rendering for a project, serving it from storage
// unless regeneration is forced. Unlike the report stage's edge into the
// stance stage, the force flag is forwarded unchanged here: forcing a visual
// refresh may also refresh the narrative it renders.
func (v *VisualStage) Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.VisualReportArtifact, error) {
	result, err, _ := v.group.Do(project.ID, func() (any, error) {
		return v.generate(ctx, project, comments, forceRegenerate, customPrompt)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.VisualReportArtifact), nil
}

func (v *VisualStage) generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.VisualReportArtifact, error) {
	existing, err := v.store.Get(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load visual report: %v", domain.ErrStore, err)
	}
	if existing != nil && !forceRegenerate {
		v.debug("visual report served from store", "project", project.ID)
		return existing, nil
	}

	report, err := v.reports.Generate(ctx, project, comments, forceRegenerate, customPrompt)
	if err != nil {
		return nil, fmt.Errorf("narrative for visual report: %w", err)
	}

	prompt := buildVisualPrompt(report.Narrative, v.template)
	completion, err := v.client.Complete(ctx, v.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("visual completion: %w", err)
	}

	html := sanitizeCompletion(completion)
	if html == "" {
		return nil, domain.ErrGenerationFailed
	}
	if err := v.inspectHTML(html); err != nil {
		return nil, err
	}

	artifact := domain.VisualReportArtifact{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		HTML:        html,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := v.store.Upsert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("%w: persist visual report: %v", domain.ErrStore, err)
	}

	v.debug("visual report generated", "project", project.ID, "bytes", len(html))
	return &artifact, nil
}

// inspectHTML rejects completions that are not a usable HTML document.
func (v *VisualStage) inspectHTML(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("%w: parse html: %v", domain.ErrMalformedCompletion, err)
	}
	if doc.Find("body *").Length() == 0 {
		return fmt.Errorf("%w: empty html body", domain.ErrMalformedCompletion)
	}
	if doc.Find("style").Length() == 0 {
		v.debug("visual report carries no embedded stylesheet")
	}
	return nil
}

func (v *VisualStage) debug(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}
