package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"tutorial-tracker/internal/domain"
)

// QuizLoader loads section quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM section_quizzes WHERE section_id=$1`, sectionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SectionQuiz{}, domain.ErrQuizUnavailable
	}
	if err != nil {
		return domain.SectionQuiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.SectionQuiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.SectionQuiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if !quiz.Available() {
		return domain.SectionQuiz{}, domain.ErrQuizUnavailable
	}
	return quiz, nil
}

// SaveQuiz upserts a quiz bank, used to seed the table from catalog files.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.SectionQuiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO section_quizzes (section_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (section_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		quiz.SectionID, data)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}
