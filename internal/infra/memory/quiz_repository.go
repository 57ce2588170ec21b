package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"tutorial-tracker/internal/domain"
)

// QuizLoader fetches a section's quiz bank from a backing store (catalog files, Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error)
}

// QuizRepository caches quiz banks with TTL to avoid repeated loads.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.SectionQuiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	if quiz, ok := r.lookup(sectionID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(sectionID, func() (interface{}, error) {
		if quiz, ok := r.lookup(sectionID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, sectionID)
		if err != nil {
			return domain.SectionQuiz{}, err
		}

		r.mu.Lock()
		r.cache[sectionID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.SectionQuiz{}, err
	}
	return result.(domain.SectionQuiz), nil
}

func (r *QuizRepository) lookup(sectionID string) (domain.SectionQuiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[sectionID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.SectionQuiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader serves quizzes from an in-memory map, usually the catalog's.
// It also satisfies app.QuizRepository directly when no cache is wanted.
type StaticQuizLoader struct {
	quizzes map[string]domain.SectionQuiz
}

func NewStaticQuizLoader(quizzes map[string]domain.SectionQuiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, sectionID string) (domain.SectionQuiz, error) {
	if quiz, ok := l.quizzes[sectionID]; ok && quiz.Available() {
		return quiz, nil
	}
	return domain.SectionQuiz{}, domain.ErrQuizUnavailable
}

func (l *StaticQuizLoader) GetQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	return l.LoadQuiz(ctx, sectionID)
}
