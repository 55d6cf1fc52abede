package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsightReporter/internal/domain"
)

func respondSummary(model, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "single JSON object"):
		return stanceJSON, nil
	case strings.Contains(prompt, "llms-full.txt"):
		return "```markdown\n# Extended\n```", nil
	case strings.Contains(prompt, "llms.txt"):
		return "```markdown\n# Concise\n```", nil
	default:
		return "narrative text", nil
	}
}

func newSummaryFixture(respond func(model, prompt string) (string, error)) (*SummaryStage, *fakeClient, *memReportStore) {
	client := &fakeClient{respond: respond}
	reportStore := newMemReportStore()
	stances := NewStanceStage(client, newMemStanceStore(), "strong-model", nil)
	reports := NewReportStage(stances, client, reportStore, "cheap-model", nil)
	summaries := NewSummaryStage(reports, client, "cheap-model", "strong-model", nil)
	return summaries, client, reportStore
}

func TestSummaryStageGeneratesBothDocuments(t *testing.T) {
	t.Parallel()

	summaries, client, _ := newSummaryFixture(respondSummary)

	docs, err := summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, "Transit Reform", docs.ProjectName)
	assert.Equal(t, "# Concise", docs.Concise)
	assert.Equal(t, "# Extended", docs.Extended)
	// Two stance generations, one narrative, two summary documents.
	assert.Equal(t, 5, client.callCount())
}

func TestSummaryStageRecomputesOnEveryCall(t *testing.T) {
	t.Parallel()

	summaries, client, reportStore := newSummaryFixture(respondSummary)

	_, err := summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	require.NoError(t, err)
	require.Equal(t, 5, client.callCount())

	_, err = summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	require.NoError(t, err)

	// The narrative is a cache hit; both summary completions still run.
	assert.Equal(t, 7, client.callCount())
	assert.Equal(t, 1, reportStore.upserts, "summary documents are never persisted")
}

func TestSummaryStageForcePropagatesToReport(t *testing.T) {
	t.Parallel()

	summaries, client, reportStore := newSummaryFixture(respondSummary)

	_, err := summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	require.NoError(t, err)

	_, err = summaries.Generate(context.Background(), twoQuestionProject(), nil, true)
	require.NoError(t, err)

	// Forced run regenerates the narrative (stances reused) plus both summaries.
	assert.Equal(t, 8, client.callCount())
	assert.Equal(t, 2, reportStore.upserts)
}

func TestSummaryStageEitherFailureFailsTheStage(t *testing.T) {
	t.Parallel()

	summaries, _, _ := newSummaryFixture(func(model, prompt string) (string, error) {
		if strings.Contains(prompt, "llms-full.txt") {
			return "", errors.New("upstream down")
		}
		return respondSummary(model, prompt)
	})

	_, err := summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	require.Error(t, err)
}

func TestSummaryStageEmptyConciseCompletion(t *testing.T) {
	t.Parallel()

	summaries, _, _ := newSummaryFixture(func(model, prompt string) (string, error) {
		if strings.Contains(prompt, "llms-full.txt") {
			return "# Extended", nil
		}
		if strings.Contains(prompt, "llms.txt") {
			return "   ", nil
		}
		return respondSummary(model, prompt)
	})

	_, err := summaries.Generate(context.Background(), twoQuestionProject(), nil, false)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}
