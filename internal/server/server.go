package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/pipeline"
	"InsightReporter/internal/ports"
)

// StanceAnalyzer exposes the stance stage to the boundary layer.
type StanceAnalyzer interface {
	Analyze(ctx context.Context, req pipeline.StanceRequest) (*domain.StanceAnalysisArtifact, error)
}

// ReportGenerator exposes the project report stage to the boundary layer.
type ReportGenerator interface {
	Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.ProjectReportArtifact, error)
}

// VisualGenerator exposes the visual report stage to the boundary layer.
type VisualGenerator interface {
	Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool, customPrompt string) (*domain.VisualReportArtifact, error)
}

// SummaryGenerator exposes the summary export stage to the boundary layer.
type SummaryGenerator interface {
	Generate(ctx context.Context, project domain.Project, comments []domain.Comment, forceRegenerate bool) (*domain.SummaryDocuments, error)
}

// Deps wires every collaborator the boundary layer needs.
type Deps struct {
	Projects  ports.ProjectRepository
	Stances   StanceAnalyzer
	Reports   ReportGenerator
	Visuals   VisualGenerator
	Summaries SummaryGenerator
	Logger    *slog.Logger
}

// Server translates HTTP requests into pipeline invocations.
type Server struct {
	projects  ports.ProjectRepository
	stances   StanceAnalyzer
	reports   ReportGenerator
	visuals   VisualGenerator
	summaries SummaryGenerator
	logger    *slog.Logger
}

// New constructs the boundary server.
func New(deps Deps) *Server {
	return &Server{
		projects:  deps.Projects,
		stances:   deps.Stances,
		reports:   deps.Reports,
		visuals:   deps.Visuals,
		summaries: deps.Summaries,
		logger:    deps.Logger,
	}
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{projectID}/questions/{questionID}/stance-analysis", s.handleStanceAnalysis)
	mux.HandleFunc("GET /projects/{projectID}/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /projects/{projectID}/visual-analysis", s.handleVisualAnalysis)
	mux.HandleFunc("GET /projects/{projectID}/summary", s.handleSummary)
	mux.HandleFunc("GET /projects/{projectID}/summary/download", s.handleSummaryDownload)
	mux.HandleFunc("GET /projects/{projectID}/export-csv", s.handleExportCSV)
	return mux
}

func (s *Server) handleStanceAnalysis(w http.ResponseWriter, r *http.Request) {
	force, ok := s.parseForce(w, r)
	if !ok {
		return
	}

	project, comments, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	questionID := r.PathValue("questionID")
	var question *domain.Question
	for i := range project.Questions {
		if project.Questions[i].ID == questionID {
			question = &project.Questions[i]
			break
		}
	}
	if question == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("question %s not found", questionID))
		return
	}

	artifact, err := s.stances.Analyze(r.Context(), pipeline.StanceRequest{
		ProjectID:       project.ID,
		QuestionID:      question.ID,
		QuestionText:    question.Text,
		Stances:         question.Stances,
		Comments:        comments,
		ForceRegenerate: force,
		CustomPrompt:    r.URL.Query().Get("customPrompt"),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.writeJSON(w, map[string]any{
		"projectId":    artifact.ProjectID,
		"questionId":   artifact.QuestionID,
		"questionText": artifact.QuestionText,
		"distribution": artifact.Distribution,
		"analysis":     artifact.Analysis,
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	force, ok := s.parseForce(w, r)
	if !ok {
		return
	}

	project, comments, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	artifact, err := s.reports.Generate(r.Context(), *project, comments, force, r.URL.Query().Get("customPrompt"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.writeJSON(w, map[string]any{
		"projectName":     artifact.ProjectName,
		"overallAnalysis": artifact.Narrative,
	})
}

func (s *Server) handleVisualAnalysis(w http.ResponseWriter, r *http.Request) {
	force, ok := s.parseForce(w, r)
	if !ok {
		return
	}

	project, comments, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	artifact, err := s.visuals.Generate(r.Context(), *project, comments, force, r.URL.Query().Get("customPrompt"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.writeJSON(w, map[string]any{
		"projectName":     artifact.ProjectName,
		"overallAnalysis": artifact.HTML,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.generateSummary(w, r)
	if !ok {
		return
	}

	s.writeJSON(w, map[string]any{
		"projectName": docs.ProjectName,
		"llmsTxt":     docs.Concise,
		"llmsFullTxt": docs.Extended,
	})
}

func (s *Server) handleSummaryDownload(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.generateSummary(w, r)
	if !ok {
		return
	}

	content, filename := docs.Concise, "llms.txt"
	if r.URL.Query().Get("type") == "full" {
		content, filename = docs.Extended, "llms-full.txt"
	}

	w.Header().Set("Content-Type", "text/markdown")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write([]byte(content))
}

func (s *Server) generateSummary(w http.ResponseWriter, r *http.Request) (*domain.SummaryDocuments, bool) {
	force, ok := s.parseForce(w, r)
	if !ok {
		return nil, false
	}

	project, comments, ok := s.loadProject(w, r)
	if !ok {
		return nil, false
	}

	docs, err := s.summaries.Generate(r.Context(), *project, comments, force)
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, false
	}

	return docs, true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	project, comments, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=project-%s-export.csv", project.ID))

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"commentId", "projectName", "sourceType", "content"})
	for _, comment := range comments {
		_ = writer.Write([]string{comment.ID, project.Name, comment.SourceType, comment.Content})
	}
	writer.Flush()
}

// parseForce reads the forceRegenerate query flag strictly: anything other
// than a valid boolean literal is a client error, never silently false.
func (s *Server) parseForce(w http.ResponseWriter, r *http.Request) (bool, bool) {
	raw := r.URL.Query().Get("forceRegenerate")
	if raw == "" {
		return false, true
	}
	force, err := strconv.ParseBool(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "forceRegenerate must be a boolean")
		return false, false
	}
	return force, true
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*domain.Project, []domain.Comment, bool) {
	projectID := r.PathValue("projectID")

	project, err := s.projects.GetProject(r.Context(), projectID)
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, nil, false
	}

	comments, err := s.projects.ListComments(r.Context(), projectID)
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, nil, false
	}

	return project, comments, true
}

// writeFailure maps pipeline errors onto status codes: absent references are
// a 404, everything else a 500 with a human-readable message.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if s.logger != nil {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil && s.logger != nil {
		s.logger.Error("encode response", "error", err)
	}
}
