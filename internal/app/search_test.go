package app_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
)

func TestSearchMatchesTitleAndExplanation(t *testing.T) {
	catalog := sampleCatalog()

	results, active := app.Search(catalog, "HELLO")
	if !active || len(results) != 1 || results[0].LessonID != "hello" {
		t.Fatalf("expected title match, got %+v", results)
	}

	results, _ = app.Search(catalog, "memory safety")
	if len(results) != 1 || results[0].SectionTitle != "Getting Started" {
		t.Fatalf("expected explanation match, got %+v", results)
	}

	results, active = app.Search(catalog, "haskell")
	if !active || len(results) != 0 {
		t.Fatalf("expected active search with no results, got %v %+v", active, results)
	}
}

func TestSearchBlankQueryIsInactive(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		if results, active := app.Search(sampleCatalog(), q); active || results != nil {
			t.Fatalf("query %q: expected inactive, got %v %+v", q, active, results)
		}
	}
}

func TestSearchCapsResultsInCatalogOrder(t *testing.T) {
	lessons := make([]domain.Lesson, 12)
	for i := range lessons {
		lessons[i] = domain.Lesson{ID: fmt.Sprintf("l%02d", i), Title: fmt.Sprintf("Trait %d", i)}
	}
	catalog := &domain.Catalog{Sections: []domain.Section{{ID: "traits", Title: "Traits", Lessons: lessons}}}

	results, _ := app.Search(catalog, "trait")
	if len(results) != app.MaxSearchResults {
		t.Fatalf("expected %d results, got %d", app.MaxSearchResults, len(results))
	}
	for i, r := range results {
		if r.LessonID != fmt.Sprintf("l%02d", i) {
			t.Fatalf("result %d out of order: %s", i, r.LessonID)
		}
	}
}

func TestSearchPreviewTruncatesRunes(t *testing.T) {
	long := strings.Repeat("所有权", 50)
	catalog := &domain.Catalog{Sections: []domain.Section{{ID: "o", Lessons: []domain.Lesson{{ID: "l", Title: "Ownership", Explanation: long}}}}}

	results, _ := app.Search(catalog, "ownership")
	preview := results[0].Preview
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected ellipsis, got %q", preview)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(preview, "...")); n != 100 {
		t.Fatalf("expected 100 runes before ellipsis, got %d", n)
	}
	if !utf8.ValidString(preview) {
		t.Fatalf("preview split a rune")
	}
}
