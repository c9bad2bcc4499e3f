package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gdpr-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ConsentStore keeps one JSON consent record per player; Redis expiry
// enforces the consent lifetime.
type ConsentStore struct {
	client *redis.Client
}

func NewConsentStore(client *redis.Client) *ConsentStore {
	return &ConsentStore{client: client}
}

func (s *ConsentStore) GetConsent(ctx context.Context, playerID string) (domain.Consent, error) {
	raw, err := s.client.Get(ctx, consentKey(playerID)).Bytes()
	if isNil(err) {
		return domain.Consent{}, domain.ErrConsentNotFound
	}
	if err != nil {
		return domain.Consent{}, fmt.Errorf("get consent: %w", err)
	}
	var consent domain.Consent
	if err := json.Unmarshal(raw, &consent); err != nil {
		return domain.Consent{}, fmt.Errorf("unmarshal consent: %w", err)
	}
	return consent, nil
}

func (s *ConsentStore) SaveConsent(ctx context.Context, playerID string, consent domain.Consent, ttl time.Duration) error {
	raw, err := json.Marshal(consent)
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}
	return s.client.Set(ctx, consentKey(playerID), raw, ttl).Err()
}

func consentKey(playerID string) string {
	return "quiz:consent:" + playerID
}

func (s *ConsentStore) DeleteConsent(ctx context.Context, playerID string) error {
	return s.client.Del(ctx, consentKey(playerID)).Err()
}
