package model

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// LeaderboardSnapshot is one stored leaderboard document, keyed like the
// Redis value it replaces.
type LeaderboardSnapshot struct {
	bun.BaseModel `bun:"table:leaderboard_snapshots,alias:ls"`

	Key       string          `bun:"key,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}
