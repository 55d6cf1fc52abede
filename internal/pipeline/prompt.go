package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"InsightReporter/internal/domain"
)

// VisualTemplate carries the design constraints injected into the visual
// report prompt. Values come from configuration, not pipeline logic.
type VisualTemplate struct {
	Palette         []string
	FontFamily      string
	MaxContentWidth int
}

func buildStancePrompt(questionText string, stances []string, comments []domain.Comment, customPrompt string) string {
	var b strings.Builder
	if customPrompt != "" {
		b.WriteString(customPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Analyze the stances taken in the comments below on the following question.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", questionText)
	b.WriteString("Candidate stances:\n")
	for _, stance := range stances {
		fmt.Fprintf(&b, "- %s\n", stance)
	}
	b.WriteString("\nComments:\n")
	for _, comment := range comments {
		fmt.Fprintf(&b, "- %s\n", comment.Content)
	}
	b.WriteString(`
Respond with a single JSON object and nothing else, using this shape:
{"distribution": {"<stance>": <number of comments taking it>}, "analysis": "<short explanation of the overall picture>"}
Every candidate stance must appear as a key in "distribution".`)
	return b.String()
}

// questionAnalysis is one fan-out result fed into the aggregate report prompt.
type questionAnalysis struct {
	Question     string
	Distribution map[string]int
	Analysis     string
}

func buildReportPrompt(project domain.Project, analyses []questionAnalysis, customPrompt string) string {
	var b strings.Builder
	if customPrompt != "" {
		b.WriteString(customPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Write a narrative analysis report for the project below, synthesizing the per-question stance analyses into one coherent markdown document.\n\n")
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Description: %s\n\n", project.Description)
	for i, qa := range analyses {
		fmt.Fprintf(&b, "## Question %d: %s\n", i+1, qa.Question)
		for _, stance := range sortedKeys(qa.Distribution) {
			fmt.Fprintf(&b, "- %s: %d\n", stance, qa.Distribution[stance])
		}
		fmt.Fprintf(&b, "\n%s\n\n", qa.Analysis)
	}
	b.WriteString("Cover the main points of contention, the balance of stances, and notable insights. Return only the markdown report text.")
	return b.String()
}

func buildVisualPrompt(narrative string, tpl VisualTemplate) string {
	var b strings.Builder
	b.WriteString("Convert the report below into a single self-contained HTML document with embedded CSS, styled as a polished infographic.\n\n")
	b.WriteString("Design constraints:\n")
	fmt.Fprintf(&b, "- Color palette: %s\n", strings.Join(tpl.Palette, ", "))
	fmt.Fprintf(&b, "- Font family: %s\n", tpl.FontFamily)
	fmt.Fprintf(&b, "- Single column, content centered, max width %dpx\n", tpl.MaxContentWidth)
	b.WriteString("- Card components with rounded corners and subtle shadows\n")
	b.WriteString("- Emphasize keywords, keep generous whitespace, avoid structures fragile enough to break the CSS\n\n")
	b.WriteString("Report:\n")
	b.WriteString(narrative)
	b.WriteString("\n---\nReturn only the complete HTML+CSS code.")
	return b.String()
}

func buildConciseSummaryPrompt(project domain.Project, narrative string) string {
	var b strings.Builder
	b.WriteString("Generate an llms.txt document from the project information and analysis report below. ")
	b.WriteString("Use an H1 heading with the project name, a blockquote with a one-line description, and H2 sections with markdown lists.\n\n")
	writeProjectFacts(&b, project)
	fmt.Fprintf(&b, "\nAnalysis report:\n%s\n\n", narrative)
	b.WriteString("Include sections for: project overview, main points of contention, stance distribution, and findings. Return only the markdown text.")
	return b.String()
}

func buildExtendedSummaryPrompt(project domain.Project, comments []domain.Comment, narrative string) string {
	var b strings.Builder
	b.WriteString("Generate an extended llms-full.txt document from the project information and analysis report below. ")
	b.WriteString("Use an H1 heading with the project name marked as the full edition, a blockquote description, H2 sections with H3 subsections where useful, and hierarchically organized detail.\n\n")
	writeProjectFacts(&b, project)
	fmt.Fprintf(&b, "- Questions: %d\n", len(project.Questions))
	fmt.Fprintf(&b, "- Comments: %d\n", len(comments))
	fmt.Fprintf(&b, "- Comment sources: %s\n", strings.Join(distinctSourceTypes(comments), ", "))
	fmt.Fprintf(&b, "\nAnalysis report:\n%s\n\n", narrative)
	b.WriteString("Include sections for: project overview with background and purpose, methodology, main points of contention, stance distribution, detailed findings, and conclusions. Return only the markdown text.")
	return b.String()
}

func writeProjectFacts(b *strings.Builder, project domain.Project) {
	fmt.Fprintf(b, "Project information:\n")
	fmt.Fprintf(b, "- Name: %s\n", project.Name)
	fmt.Fprintf(b, "- Description: %s\n", project.Description)
	fmt.Fprintf(b, "- Extraction topic: %s\n", project.ExtractionTopic)
	fmt.Fprintf(b, "- Context: %s\n", project.Context)
}

func distinctSourceTypes(comments []domain.Comment) []string {
	seen := map[string]bool{}
	var types []string
	for _, comment := range comments {
		if comment.SourceType == "" || seen[comment.SourceType] {
			continue
		}
		seen[comment.SourceType] = true
		types = append(types, comment.SourceType)
	}
	sort.Strings(types)
	return types
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
