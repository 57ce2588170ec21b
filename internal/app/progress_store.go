package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tutorial-tracker/internal/domain"
)

// KVStore is the key-value persistence substrate (in-memory, SQLite, Redis, Postgres).
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DefaultKeyPrefix namespaces the persisted records.
const DefaultKeyPrefix = "tutorial"

// ProgressKeys names the three independent persisted records.
type ProgressKeys struct {
	Completion   string
	QuizProgress string
	Theme        string
}

// KeysWithPrefix derives the record keys from a prefix.
func KeysWithPrefix(prefix string) ProgressKeys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return ProgressKeys{
		Completion:   prefix + "-progress",
		QuizProgress: prefix + "-quiz-progress",
		Theme:        prefix + "-theme",
	}
}

// ProgressStore serializes learner progress into a KVStore. Each record is read
// and written as a whole, and a bad record never affects the other two.
type ProgressStore struct {
	kv   KVStore
	keys ProgressKeys
}

func NewProgressStore(kv KVStore, keys ProgressKeys) *ProgressStore {
	return &ProgressStore{kv: kv, keys: keys}
}

// Keys exposes the record keys in use.
func (s *ProgressStore) Keys() ProgressKeys {
	return s.keys
}

// Load restores completion and quiz progress. Missing or unreadable records
// come back empty; the condition is logged rather than returned.
func (s *ProgressStore) Load(ctx context.Context) (domain.CompletionSet, domain.QuizProgress) {
	var completion domain.CompletionSet
	if !s.read(ctx, s.keys.Completion, &completion) {
		completion = domain.NewCompletionSet()
	}

	quizzes := domain.QuizProgress{}
	if !s.read(ctx, s.keys.QuizProgress, &quizzes) || quizzes == nil {
		quizzes = domain.QuizProgress{}
	}
	return completion, quizzes
}

// LoadTheme restores the theme, defaulting to light.
func (s *ProgressStore) LoadTheme(ctx context.Context) domain.Theme {
	var raw string
	if !s.read(ctx, s.keys.Theme, &raw) {
		return domain.ThemeLight
	}
	theme, err := domain.ParseTheme(raw)
	if err != nil {
		slog.Warn("ignoring persisted theme", "key", s.keys.Theme, "value", raw)
		return domain.ThemeLight
	}
	return theme
}

// SaveCompletion overwrites the completion record.
func (s *ProgressStore) SaveCompletion(ctx context.Context, completion domain.CompletionSet) error {
	return s.write(ctx, s.keys.Completion, completion)
}

// SaveQuizProgress overwrites the quiz progress record.
func (s *ProgressStore) SaveQuizProgress(ctx context.Context, quizzes domain.QuizProgress) error {
	if quizzes == nil {
		quizzes = domain.QuizProgress{}
	}
	return s.write(ctx, s.keys.QuizProgress, quizzes)
}

// SaveTheme overwrites the theme record.
func (s *ProgressStore) SaveTheme(ctx context.Context, theme domain.Theme) error {
	if _, err := domain.ParseTheme(string(theme)); err != nil {
		return err
	}
	return s.write(ctx, s.keys.Theme, string(theme))
}

// Reset removes all three records.
func (s *ProgressStore) Reset(ctx context.Context) error {
	for _, key := range []string{s.keys.Completion, s.keys.QuizProgress, s.keys.Theme} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *ProgressStore) read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("progress record unreadable, starting empty", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("progress record corrupt, starting empty", "key", key, "error", err)
		return false
	}
	return true
}

func (s *ProgressStore) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
