package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"tutorial-tracker/internal/domain"
	"tutorial-tracker/internal/infra/memory"
)

// QuizRepository caches quiz banks in Redis and falls back to a loader on cache miss.
// Each bank is stored as JSON: SET quiz:{sectionID} {json} EX ttl
type QuizRepository struct {
	client *redis.Client
	loader memory.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader memory.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	if quiz, ok := r.cached(ctx, sectionID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(sectionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, sectionID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, sectionID)
		if err != nil {
			return domain.SectionQuiz{}, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			_ = r.client.Set(ctx, r.key(sectionID), data, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.SectionQuiz{}, err
	}
	return result.(domain.SectionQuiz), nil
}

func (r *QuizRepository) cached(ctx context.Context, sectionID string) (domain.SectionQuiz, bool) {
	data, err := r.client.Get(ctx, r.key(sectionID)).Bytes()
	if err != nil {
		return domain.SectionQuiz{}, false
	}
	var quiz domain.SectionQuiz
	if err := json.Unmarshal(data, &quiz); err != nil || !quiz.Available() {
		return domain.SectionQuiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(sectionID string) string {
	return "quiz:" + sectionID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
