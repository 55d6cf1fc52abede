package domain

import "time"

// StanceAnalysisArtifact is the persisted stance breakdown for one question.
type StanceAnalysisArtifact struct {
	ProjectID    string
	QuestionID   string
	QuestionText string
	Distribution map[string]int
	Analysis     string
	UpdatedAt    time.Time
}

// ProjectReportArtifact is the persisted project-wide narrative.
type ProjectReportArtifact struct {
	ProjectID   string
	ProjectName string
	Narrative   string
	UpdatedAt   time.Time
}

// VisualReportArtifact is the persisted HTML+CSS rendering of the narrative.
type VisualReportArtifact struct {
	ProjectID   string
	ProjectName string
	HTML        string
	UpdatedAt   time.Time
}

// SummaryDocuments holds both machine-readable exports. Never persisted;
// recomputed on every request on top of the cached narrative.
type SummaryDocuments struct {
	ProjectName string
	Concise     string
	Extended    string
}
