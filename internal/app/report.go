package app

import (
	"time"

	"github.com/google/uuid"
	"tutorial-tracker/internal/domain"
)

// LessonTally counts completed lessons against a total.
type LessonTally struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// QuizSummary is the per-section quiz line of a report.
type QuizSummary struct {
	Available     bool       `json:"available"`
	Passed        bool       `json:"passed"`
	BestPercent   int        `json:"bestPercent"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt"`
}

// SectionReport is one row of the report.
type SectionReport struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Lessons  LessonTally `json:"lessons"`
	Quiz     QuizSummary `json:"quiz"`
	Complete bool        `json:"complete"`
}

// ReportSummary aggregates all sections.
type ReportSummary struct {
	Lessons           LessonTally `json:"lessons"`
	QuizzesPassed     int         `json:"quizzesPassed"`
	CompletedSections int         `json:"completedSections"`
	TotalSections     int         `json:"totalSections"`
}

// ReportDocument is computed once and rendered into every export format.
type ReportDocument struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Title       string          `json:"title"`
	Target      string          `json:"target,omitempty"`
	Summary     ReportSummary   `json:"summary"`
	Sections    []SectionReport `json:"sections"`
}

// BuildReport derives the progress report. Completion keys that no longer match a
// catalog lesson are ignored so stale state cannot push a section past 100%.
func BuildReport(catalog *domain.Catalog, completion domain.CompletionSet, quizzes domain.QuizProgress, now time.Time) ReportDocument {
	doc := ReportDocument{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Title:       catalog.Title,
		Target:      catalog.Target,
		Sections:    make([]SectionReport, 0, len(catalog.Sections)),
	}

	for _, section := range catalog.Sections {
		done := 0
		for _, lesson := range section.Lessons {
			if completion.Has(domain.LessonKey(section.ID, lesson.ID)) {
				done++
			}
		}

		row := SectionReport{
			ID:    section.ID,
			Title: section.Title,
			Lessons: LessonTally{
				Completed: done,
				Total:     len(section.Lessons),
				Percent:   percent(done, len(section.Lessons)),
			},
		}
		if quiz, ok := catalog.Quizzes[section.ID]; ok && quiz.Available() {
			row.Quiz.Available = true
		}
		if rec, ok := quizzes[section.ID]; ok {
			row.Quiz.Available = true
			row.Quiz.Passed = rec.Passed
			row.Quiz.BestPercent = rec.BestPercent
			row.Quiz.Attempts = rec.Attempts
			if !rec.LastAttemptAt.IsZero() {
				at := rec.LastAttemptAt
				row.Quiz.LastAttemptAt = &at
			}
		}
		row.Complete = done == len(section.Lessons) && row.Quiz.Passed

		doc.Summary.Lessons.Completed += done
		doc.Summary.Lessons.Total += len(section.Lessons)
		if row.Quiz.Passed {
			doc.Summary.QuizzesPassed++
		}
		if row.Complete {
			doc.Summary.CompletedSections++
		}
		doc.Sections = append(doc.Sections, row)
	}

	doc.Summary.TotalSections = len(catalog.Sections)
	doc.Summary.Lessons.Percent = percent(doc.Summary.Lessons.Completed, doc.Summary.Lessons.Total)
	return doc
}
