package app_test

import (
	"context"
	"errors"
	"time"

	"tutorial-tracker/internal/domain"
)

func sampleCatalog() *domain.Catalog {
	return &domain.Catalog{
		Title: "Rust Tutorial",
		Sections: []domain.Section{
			{
				ID:    "intro",
				Title: "Getting Started",
				Lessons: []domain.Lesson{
					{ID: "what-is-rust", Title: "What is Rust?", Explanation: "Rust is a systems language focused on memory safety."},
					{ID: "hello", Title: "Hello, World!", Explanation: "Every program starts at main."},
				},
			},
			{
				ID:    "cargo",
				Title: "Cargo",
				Lessons: []domain.Lesson{
					{ID: "cargo-new", Title: "Creating a project", Explanation: "cargo new scaffolds a crate."},
				},
			},
		},
		Quizzes: map[string]domain.SectionQuiz{
			"intro": introQuiz(),
		},
	}
}

func introQuiz() domain.SectionQuiz {
	return domain.SectionQuiz{
		SectionID: "intro",
		Title:     "Intro quiz",
		Questions: []domain.QuizQuestion{
			{
				ID:      "q1",
				Prompt:  "Which tool manages toolchains?",
				Kind:    domain.KindSingle,
				Options: []domain.Option{{ID: "a", Text: "cargo"}, {ID: "b", Text: "rustup"}},
				Answer:  []string{"b"},
			},
			{
				ID:      "q2",
				Prompt:  "Which ship with Rust?",
				Kind:    domain.KindMulti,
				Options: []domain.Option{{ID: "a", Text: "rustfmt"}, {ID: "b", Text: "npm"}, {ID: "c", Text: "clippy"}},
				Answer:  []string{"a", "c"},
			},
		},
	}
}

var fixedNow = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

// quizMap implements app.QuizRepository over a plain map.
type quizMap map[string]domain.SectionQuiz

func (m quizMap) GetQuiz(_ context.Context, sectionID string) (domain.SectionQuiz, error) {
	if q, ok := m[sectionID]; ok {
		return q, nil
	}
	return domain.SectionQuiz{}, domain.ErrQuizUnavailable
}

// failingKV wraps a KV store and fails writes on demand.
type failingKV struct {
	data     map[string]string
	failSets bool
	failGets bool
}

var errBackend = errors.New("backend down")

func newFailingKV() *failingKV {
	return &failingKV{data: make(map[string]string)}
}

func (f *failingKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.failGets {
		return "", false, errBackend
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *failingKV) Set(_ context.Context, key, value string) error {
	if f.failSets {
		return errBackend
	}
	f.data[key] = value
	return nil
}

func (f *failingKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}
