package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gdpr-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GameStore keeps in-flight games in Redis so any instance can continue a
// game. Abandoned games expire after ttl.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func (s *GameStore) Save(ctx context.Context, game *domain.Game) error {
	raw, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	return s.client.Set(ctx, s.key(game.ID), raw, s.ttl).Err()
}

func (s *GameStore) Get(ctx context.Context, gameID string) (*domain.Game, error) {
	raw, err := s.client.Get(ctx, s.key(gameID)).Bytes()
	if isNil(err) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	var game domain.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &game, nil
}

func (s *GameStore) Delete(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, s.key(gameID)).Err()
}

func (s *GameStore) key(gameID string) string {
	return "quiz:game:" + gameID
}
