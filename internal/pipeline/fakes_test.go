package pipeline

import (
	"context"
	"sync"

	"InsightReporter/internal/domain"
)

// fakeClient scripts completion responses and records every call.
type fakeClient struct {
	mu      sync.Mutex
	calls   []string
	respond func(model, prompt string) (string, error)
}

func (f *fakeClient) Complete(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()
	return f.respond(model, prompt)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memStanceStore struct {
	mu      sync.Mutex
	items   map[string]domain.StanceAnalysisArtifact
	upserts int
}

func newMemStanceStore() *memStanceStore {
	return &memStanceStore{items: map[string]domain.StanceAnalysisArtifact{}}
}

func (m *memStanceStore) Get(_ context.Context, projectID, questionID string) (*domain.StanceAnalysisArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if artifact, ok := m.items[projectID+"/"+questionID]; ok {
		return &artifact, nil
	}
	return nil, nil
}

func (m *memStanceStore) Upsert(_ context.Context, artifact domain.StanceAnalysisArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[artifact.ProjectID+"/"+artifact.QuestionID] = artifact
	m.upserts++
	return nil
}

type memReportStore struct {
	mu      sync.Mutex
	items   map[string]domain.ProjectReportArtifact
	upserts int
}

func newMemReportStore() *memReportStore {
	return &memReportStore{items: map[string]domain.ProjectReportArtifact{}}
}

func (m *memReportStore) Get(_ context.Context, projectID string) (*domain.ProjectReportArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if artifact, ok := m.items[projectID]; ok {
		return &artifact, nil
	}
	return nil, nil
}

func (m *memReportStore) Upsert(_ context.Context, artifact domain.ProjectReportArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[artifact.ProjectID] = artifact
	m.upserts++
	return nil
}

type memVisualStore struct {
	mu      sync.Mutex
	items   map[string]domain.VisualReportArtifact
	upserts int
}

func newMemVisualStore() *memVisualStore {
	return &memVisualStore{items: map[string]domain.VisualReportArtifact{}}
}

func (m *memVisualStore) Get(_ context.Context, projectID string) (*domain.VisualReportArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if artifact, ok := m.items[projectID]; ok {
		return &artifact, nil
	}
	return nil, nil
}

func (m *memVisualStore) Upsert(_ context.Context, artifact domain.VisualReportArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[artifact.ProjectID] = artifact
	m.upserts++
	return nil
}
