package memory

import (
	"context"
	"sync"
)

// SnapshotStore keeps leaderboard snapshots in process memory.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{data: make(map[string][]byte)}
}

func (s *SnapshotStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *SnapshotStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}
