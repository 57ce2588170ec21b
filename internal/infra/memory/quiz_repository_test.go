package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutorial-tracker/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.SectionQuiz{
			"ownership": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "ownership"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	quiz, err := repo.GetQuiz(context.Background(), "ownership")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].ID != "q1" {
		t.Fatalf("unexpected cached quiz %+v", quiz)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.SectionQuiz{
			"ownership": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "ownership")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "ownership")

	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestStaticQuizLoaderUnavailable(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.SectionQuiz{
		"cargo": {SectionID: "cargo"},
	})

	for _, id := range []string{"cargo", "missing"} {
		if _, err := loader.LoadQuiz(context.Background(), id); !errors.Is(err, domain.ErrQuizUnavailable) {
			t.Fatalf("%s: expected unavailable, got %v", id, err)
		}
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, sectionID)
}

func sampleQuiz() domain.SectionQuiz {
	return domain.SectionQuiz{
		SectionID: "ownership",
		Title:     "Ownership quiz",
		Questions: []domain.QuizQuestion{
			{
				ID:     "q1",
				Prompt: "Which type implements Copy?",
				Kind:   domain.KindSingle,
				Options: []domain.Option{
					{ID: "a", Text: "String"},
					{ID: "b", Text: "i32"},
				},
				Answer: []string{"b"},
			},
		},
	}
}
