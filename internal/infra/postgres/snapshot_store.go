package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gdpr-quiz-service/internal/infra/postgres/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// OpenDB opens a bun handle over pgdriver for the given DSN.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// SnapshotStore keeps leaderboard snapshots in the leaderboard_snapshots
// table, one row per key. Set is a single upsert.
type SnapshotStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewSnapshotStore(db *bun.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := new(model.LeaderboardSnapshot)
	err := s.db.NewSelect().
		Model(row).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select snapshot: %w", err)
	}
	return row.Data, true, nil
}

func (s *SnapshotStore) Set(ctx context.Context, key string, data []byte) error {
	row := &model.LeaderboardSnapshot{
		Key:       key,
		Data:      json.RawMessage(data),
		UpdatedAt: s.now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
