package domain

// Project is the read-only aggregate the pipeline derives reports from.
type Project struct {
	ID              string
	Name            string
	Description     string
	ExtractionTopic string
	Context         string
	Questions       []Question
}

// Question is one debated question inside a project with its candidate stances.
type Question struct {
	ID      string
	Text    string
	Stances []string
}

// Comment is a single collected opinion, fetched in bulk per project.
type Comment struct {
	ID         string
	ProjectID  string
	SourceType string
	Content    string
}
