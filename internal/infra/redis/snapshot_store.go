package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the leaderboard snapshot as a single string value.
// SET replaces the value atomically so readers never see a partial write.
type SnapshotStore struct {
	client *redis.Client
}

func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if isNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}
	return data, true, nil
}

func (s *SnapshotStore) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}
