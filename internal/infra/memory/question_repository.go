package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gdpr-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// staleRetry is how long an expired bank keeps being served after a failed
// reload before the loader is tried again.
const staleRetry = 30 * time.Second

// QuestionRepository keeps loaded question banks in process. Concurrent
// misses share one load. When a reload fails for a transient reason the
// expired bank is served on, so running quizzes survive a backing store
// outage; a bank that is gone or invalid is never served stale.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    *TTLJitter
	clock  func() time.Time
	logger *slog.Logger
	loads  singleflight.Group

	mu    sync.RWMutex
	banks map[string]loadedBank
}

type loadedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func (b loadedBank) fresh(now time.Time) bool {
	return b.expiresAt.After(now)
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    NewTTLJitter(ttl),
		clock:  time.Now,
		logger: slog.Default(),
		banks:  make(map[string]loadedBank),
	}
}

func (r *QuestionRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if loaded, ok := r.lookup(bankID); ok && loaded.fresh(r.clock()) {
		return loaded.bank, nil
	}

	v, err, _ := r.loads.Do(bankID, func() (any, error) {
		loaded, found := r.lookup(bankID)
		now := r.clock()
		if found && loaded.fresh(now) {
			return loaded.bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		switch {
		case err == nil:
			r.store(bankID, loadedBank{bank: bank, expiresAt: now.Add(r.ttl.Next())})
			return bank, nil
		case found && !permanent(err):
			r.logger.Warn("Question bank reload failed, serving cached copy",
				slog.String("bank_id", bankID),
				slog.Any("error", err),
			)
			r.store(bankID, loadedBank{bank: loaded.bank, expiresAt: now.Add(staleRetry)})
			return loaded.bank, nil
		default:
			r.forget(bankID)
			return domain.QuestionBank{}, err
		}
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return v.(domain.QuestionBank), nil
}

func (r *QuestionRepository) lookup(bankID string) (loadedBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loaded, ok := r.banks[bankID]
	return loaded, ok
}

func (r *QuestionRepository) store(bankID string, loaded loadedBank) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banks[bankID] = loaded
}

func (r *QuestionRepository) forget(bankID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.banks, bankID)
}

// permanent errors mean the bank itself is gone or broken.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrQuestionBankNotFound) || errors.Is(err, domain.ErrInvalidQuestionBank)
}
