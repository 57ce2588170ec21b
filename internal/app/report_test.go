package app_test

import (
	"testing"

	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
)

func TestBuildReport(t *testing.T) {
	catalog := sampleCatalog()
	completion := domain.NewCompletionSet("intro-what-is-rust", "intro-hello", "cargo-cargo-new", "removed-lesson")
	quizzes := domain.QuizProgress{
		"intro": {BestPercent: 100, Passed: true, Attempts: 2, LastAttemptAt: fixedNow},
	}

	doc := app.BuildReport(catalog, completion, quizzes, fixedNow)

	if doc.ID == "" || !doc.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("expected id and timestamp, got %q %s", doc.ID, doc.GeneratedAt)
	}
	if doc.Summary.Lessons.Completed != 3 || doc.Summary.Lessons.Total != 3 || doc.Summary.Lessons.Percent != 100 {
		t.Fatalf("stale keys must not count, got %+v", doc.Summary.Lessons)
	}
	if doc.Summary.QuizzesPassed != 1 || doc.Summary.CompletedSections != 1 || doc.Summary.TotalSections != 2 {
		t.Fatalf("unexpected summary %+v", doc.Summary)
	}

	intro := doc.Sections[0]
	if !intro.Complete || !intro.Quiz.Available || intro.Quiz.LastAttemptAt == nil {
		t.Fatalf("unexpected intro row %+v", intro)
	}
	cargo := doc.Sections[1]
	if cargo.Complete || cargo.Quiz.Available || cargo.Quiz.LastAttemptAt != nil {
		t.Fatalf("cargo has all lessons but no quiz, got %+v", cargo)
	}
}

func TestBuildReportEmptyCatalog(t *testing.T) {
	doc := app.BuildReport(&domain.Catalog{Title: "Empty"}, domain.CompletionSet{}, nil, fixedNow)
	if doc.Summary.Lessons.Percent != 0 || len(doc.Sections) != 0 || doc.Sections == nil {
		t.Fatalf("unexpected empty report %+v", doc)
	}
}
