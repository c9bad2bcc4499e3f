package memory

import (
	"context"
	"sync"
	"time"

	"gdpr-quiz-service/internal/domain"
)

// ConsentStore keeps consent records with an optional TTL.
type ConsentStore struct {
	clock func() time.Time

	mu       sync.RWMutex
	consents map[string]storedConsent
}

type storedConsent struct {
	consent   domain.Consent
	expiresAt time.Time
}

func NewConsentStore() *ConsentStore {
	return &ConsentStore{
		clock:    time.Now,
		consents: make(map[string]storedConsent),
	}
}

func (s *ConsentStore) GetConsent(_ context.Context, playerID string) (domain.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.consents[playerID]
	if !ok || (!stored.expiresAt.IsZero() && !stored.expiresAt.After(s.clock())) {
		return domain.Consent{}, domain.ErrConsentNotFound
	}
	return stored.consent, nil
}

func (s *ConsentStore) SaveConsent(_ context.Context, playerID string, consent domain.Consent, ttl time.Duration) error {
	stored := storedConsent{consent: consent}
	if ttl > 0 {
		stored.expiresAt = s.clock().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[playerID] = stored
	return nil
}

func (s *ConsentStore) DeleteConsent(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.consents, playerID)
	return nil
}
