package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gdpr-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PlayerStore keeps each player's game history as a Redis list of JSON
// entries and their preferences as a JSON value. Both expire with the ttl of
// the last write.
type PlayerStore struct {
	client *redis.Client
}

func NewPlayerStore(client *redis.Client) *PlayerStore {
	return &PlayerStore{client: client}
}

// AppendHistory pushes, trims and refreshes the expiry in one transaction.
func (s *PlayerStore) AppendHistory(ctx context.Context, playerID string, entry domain.HistoryEntry, limit int, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	key := historyKey(playerID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		if limit > 0 {
			pipe.LTrim(ctx, key, int64(-limit), -1)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PlayerStore) History(ctx context.Context, playerID string) ([]domain.HistoryEntry, error) {
	raws, err := s.client.LRange(ctx, historyKey(playerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	entries := make([]domain.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *PlayerStore) DeleteHistory(ctx context.Context, playerID string) error {
	return s.client.Del(ctx, historyKey(playerID)).Err()
}

func (s *PlayerStore) GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	raw, err := s.client.Get(ctx, preferencesKey(playerID)).Bytes()
	if isNil(err) {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	var prefs domain.Preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return prefs, nil
}

func (s *PlayerStore) SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences, ttl time.Duration) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return s.client.Set(ctx, preferencesKey(playerID), raw, ttl).Err()
}

func (s *PlayerStore) DeletePreferences(ctx context.Context, playerID string) error {
	return s.client.Del(ctx, preferencesKey(playerID)).Err()
}

func historyKey(playerID string) string {
	return "quiz:history:" + playerID
}

func preferencesKey(playerID string) string {
	return "quiz:prefs:" + playerID
}
