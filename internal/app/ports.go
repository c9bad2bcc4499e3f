package app

import (
	"context"
	"time"

	"gdpr-quiz-service/internal/domain"
)

// SnapshotStore persists the whole leaderboard snapshot under a single key.
// Implementations must make Set atomic for that key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// GameStore abstracts where in-flight games live (in-memory, Redis, etc).
type GameStore interface {
	Save(ctx context.Context, game *domain.Game) error
	// Get returns domain.ErrGameNotFound for unknown ids.
	Get(ctx context.Context, gameID string) (*domain.Game, error)
	Delete(ctx context.Context, gameID string) error
}

// ConsentStore keeps consent records; records older than ttl may be evicted.
type ConsentStore interface {
	// GetConsent returns domain.ErrConsentNotFound when nothing is stored.
	GetConsent(ctx context.Context, playerID string) (domain.Consent, error)
	SaveConsent(ctx context.Context, playerID string, consent domain.Consent, ttl time.Duration) error
	// DeleteConsent is a no-op for unknown players.
	DeleteConsent(ctx context.Context, playerID string) error
}

// HistoryStore keeps the finished games of each player, oldest first.
type HistoryStore interface {
	// AppendHistory keeps at most limit entries (0 means unbounded) and
	// refreshes the ttl of the whole list.
	AppendHistory(ctx context.Context, playerID string, entry domain.HistoryEntry, limit int, ttl time.Duration) error
	History(ctx context.Context, playerID string) ([]domain.HistoryEntry, error)
	DeleteHistory(ctx context.Context, playerID string) error
}

// PreferencesStore keeps the start screen preferences of each player.
type PreferencesStore interface {
	// GetPreferences returns domain.ErrPreferencesNotFound when nothing is stored.
	GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error)
	SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences, ttl time.Duration) error
	DeletePreferences(ctx context.Context, playerID string) error
}

// QuestionRepository loads question banks (from cache/backing store).
type QuestionRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}
