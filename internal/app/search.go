package app

import (
	"strings"

	"golang.org/x/text/cases"
	"tutorial-tracker/internal/domain"
)

const (
	// MaxSearchResults caps how many matches Search returns.
	MaxSearchResults = 8
	previewRunes     = 100
)

// SearchResult is one lesson matching a query.
type SearchResult struct {
	SectionID    string `json:"sectionId"`
	SectionTitle string `json:"sectionTitle"`
	LessonID     string `json:"lessonId"`
	LessonTitle  string `json:"lessonTitle"`
	Preview      string `json:"preview"`
}

// Search scans lesson titles and explanations for a case-insensitive substring.
// The bool is false when the query is blank, which callers treat differently
// from a query that simply matched nothing.
func Search(catalog *domain.Catalog, query string) ([]SearchResult, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}

	fold := cases.Fold()
	needle := fold.String(query)
	results := make([]SearchResult, 0, MaxSearchResults)
	for _, section := range catalog.Sections {
		for _, lesson := range section.Lessons {
			if !strings.Contains(fold.String(lesson.Title), needle) &&
				!strings.Contains(fold.String(lesson.Explanation), needle) {
				continue
			}
			results = append(results, SearchResult{
				SectionID:    section.ID,
				SectionTitle: section.Title,
				LessonID:     lesson.ID,
				LessonTitle:  lesson.Title,
				Preview:      preview(lesson.Explanation),
			})
			if len(results) == MaxSearchResults {
				return results, true
			}
		}
	}
	return results, true
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
