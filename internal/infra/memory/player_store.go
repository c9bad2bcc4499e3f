package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"gdpr-quiz-service/internal/domain"
)

// PlayerStore keeps game histories and preferences per player. Both expire
// together with the ttl given on the last write.
type PlayerStore struct {
	clock func() time.Time

	mu          sync.RWMutex
	history     map[string]expiring[[]domain.HistoryEntry]
	preferences map[string]expiring[domain.Preferences]
}

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

func (e expiring[T]) live(now time.Time) bool {
	return e.expiresAt.IsZero() || e.expiresAt.After(now)
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		clock:       time.Now,
		history:     make(map[string]expiring[[]domain.HistoryEntry]),
		preferences: make(map[string]expiring[domain.Preferences]),
	}
}

func (s *PlayerStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock().Add(ttl)
}

func (s *PlayerStore) AppendHistory(_ context.Context, playerID string, entry domain.HistoryEntry, limit int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []domain.HistoryEntry
	if stored, ok := s.history[playerID]; ok && stored.live(s.clock()) {
		entries = stored.value
	}
	entries = append(slices.Clone(entries), entry)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	s.history[playerID] = expiring[[]domain.HistoryEntry]{value: entries, expiresAt: s.expiry(ttl)}
	return nil
}

func (s *PlayerStore) History(_ context.Context, playerID string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.history[playerID]
	if !ok || !stored.live(s.clock()) {
		return nil, nil
	}
	return slices.Clone(stored.value), nil
}

func (s *PlayerStore) DeleteHistory(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, playerID)
	return nil
}

func (s *PlayerStore) GetPreferences(_ context.Context, playerID string) (domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.preferences[playerID]
	if !ok || !stored.live(s.clock()) {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	return stored.value, nil
}

func (s *PlayerStore) SavePreferences(_ context.Context, playerID string, prefs domain.Preferences, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[playerID] = expiring[domain.Preferences]{value: prefs, expiresAt: s.expiry(ttl)}
	return nil
}

func (s *PlayerStore) DeletePreferences(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.preferences, playerID)
	return nil
}
