package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"

	"InsightReporter/internal/config"
	"InsightReporter/internal/infrastructure/llm"
	"InsightReporter/internal/infrastructure/storage"
	"InsightReporter/internal/logging"
	"InsightReporter/internal/pipeline"
	"InsightReporter/internal/server"
)

// Application wires configs to pipeline stages and the boundary server.
// Stages are constructed once at startup and hold no state beyond their
// injected collaborators.
type Application struct {
	cfg    config.Config
	db     *sql.DB
	server *server.Server
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client := llm.NewOpenRouterClient(cfg.OpenRouter)

	stances := pipeline.NewStanceStage(
		client,
		storage.NewStanceAnalysisStore(db),
		cfg.Models.Stance,
		baseLogger.With("component", "pipeline.stance"),
	)
	reports := pipeline.NewReportStage(
		stances,
		client,
		storage.NewProjectReportStore(db),
		cfg.Models.Narrative,
		baseLogger.With("component", "pipeline.report"),
	)
	visuals := pipeline.NewVisualStage(
		reports,
		client,
		storage.NewVisualReportStore(db),
		cfg.Models.Visual,
		pipeline.VisualTemplate{
			Palette:         cfg.VisualTemplate.Palette,
			FontFamily:      cfg.VisualTemplate.FontFamily,
			MaxContentWidth: cfg.VisualTemplate.MaxContentWidth,
		},
		baseLogger.With("component", "pipeline.visual"),
	)
	summaries := pipeline.NewSummaryStage(
		reports,
		client,
		cfg.Models.ConciseSummary,
		cfg.Models.ExtendedSummary,
		baseLogger.With("component", "pipeline.summary"),
	)

	boundary := server.New(server.Deps{
		Projects:  storage.NewProjectRepository(db),
		Stances:   stances,
		Reports:   reports,
		Visuals:   visuals,
		Summaries: summaries,
		Logger:    baseLogger.With("component", "server"),
	})

	return &Application{cfg: cfg, db: db, server: boundary, logger: baseLogger}, nil
}

// Run serves the boundary API until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    a.cfg.Server.Address,
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "address", a.cfg.Server.Address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownErr := httpServer.Shutdown(context.Background())
		if closeErr := a.db.Close(); closeErr != nil && shutdownErr == nil {
			shutdownErr = closeErr
		}
		return shutdownErr
	case err := <-errCh:
		_ = a.db.Close()
		return err
	}
}
