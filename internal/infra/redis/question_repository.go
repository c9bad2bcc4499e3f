package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches question banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON: SET quiz:bank:{bankID} {json} EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    *memory.TTLJitter
	sf     singleflight.Group
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    memory.NewTTLJitter(ttl),
	}
}

func (r *QuestionRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	key := bankKey(bankID)
	if bank, ok := r.cached(ctx, key); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, key); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		if raw, err := json.Marshal(bank); err == nil {
			// cache fill is best effort
			_ = r.client.Set(ctx, key, raw, r.ttl.Next()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *QuestionRepository) cached(ctx context.Context, key string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil || len(bank.Questions) == 0 {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func bankKey(bankID string) string {
	return "quiz:bank:" + bankID
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
