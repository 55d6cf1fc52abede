package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"InsightReporter/internal/domain"
	"InsightReporter/internal/ports"
)

// StanceRequest carries everything the stance stage needs for one question.
type StanceRequest struct {
	ProjectID       string
	QuestionID      string
	QuestionText    string
	Stances         []string
	Comments        []domain.Comment
	ForceRegenerate bool
	CustomPrompt    string
}

// StanceStage produces and caches per-question stance breakdowns.
type StanceStage struct {
	client ports.CompletionClient
	store  ports.StanceAnalysisStore
	model  string
	logger *slog.Logger
	group  singleflight.Group
}

// NewStanceStage wires the stance stage with its collaborators.
func NewStanceStage(client ports.CompletionClient, store ports.StanceAnalysisStore, model string, logger *slog.Logger) *StanceStage {
	return &StanceStage{
		client: client,
		store:  store,
		model:  model,
		logger: logger,
	}
}

// Analyze returns the stance breakdown for one (project, question) pair,
// serving it from storage unless regeneration is forced. Concurrent calls
// for the same key share a single generation.
func (s *StanceStage) Analyze(ctx context.Context, req StanceRequest) (*domain.StanceAnalysisArtifact, error) {
	key := req.ProjectID + "/" + req.QuestionID
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.analyze(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.StanceAnalysisArtifact), nil
}

func (s *StanceStage) analyze(ctx context.Context, req StanceRequest) (*domain.StanceAnalysisArtifact, error) {
	existing, err := s.store.Get(ctx, req.ProjectID, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load stance analysis: %v", domain.ErrStore, err)
	}
	if existing != nil && !req.ForceRegenerate {
		s.debug("stance analysis served from store", "project", req.ProjectID, "question", req.QuestionID)
		return existing, nil
	}

	prompt := buildStancePrompt(req.QuestionText, req.Stances, req.Comments, req.CustomPrompt)
	completion, err := s.client.Complete(ctx, s.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("stance completion: %w", err)
	}

	distribution, analysis, err := parseStanceCompletion(completion)
	if err != nil {
		return nil, err
	}

	artifact := domain.StanceAnalysisArtifact{
		ProjectID:    req.ProjectID,
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		Distribution: distribution,
		Analysis:     analysis,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.store.Upsert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("%w: persist stance analysis: %v", domain.ErrStore, err)
	}

	s.debug("stance analysis generated", "project", req.ProjectID, "question", req.QuestionID)
	return &artifact, nil
}

// parseStanceCompletion decodes the structured stance response, tolerating a
// wrapping code fence around the JSON body.
func parseStanceCompletion(completion string) (map[string]int, string, error) {
	text := sanitizeCompletion(completion)
	if text == "" {
		return nil, "", domain.ErrGenerationFailed
	}

	var decoded struct {
		Distribution map[string]int `json:"distribution"`
		Analysis     string         `json:"analysis"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrMalformedCompletion, err)
	}
	if len(decoded.Distribution) == 0 {
		return nil, "", fmt.Errorf("%w: missing distribution", domain.ErrMalformedCompletion)
	}

	return decoded.Distribution, strings.TrimSpace(decoded.Analysis), nil
}

func (s *StanceStage) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
