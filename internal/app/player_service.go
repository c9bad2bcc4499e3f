package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gdpr-quiz-service/internal/domain"
)

// DefaultHistoryLimit caps how many finished games are kept per player.
const DefaultHistoryLimit = 50

// PlayerService keeps the data a player allowed us to remember: the history
// of finished games and the start screen preferences. Everything is gated on
// preferences consent and lives no longer than that consent.
type PlayerService struct {
	history      HistoryStore
	preferences  PreferencesStore
	consents     *ConsentService
	historyLimit int
	logger       *slog.Logger
}

func NewPlayerService(history HistoryStore, preferences PreferencesStore, consents *ConsentService, historyLimit int, logger *slog.Logger) *PlayerService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerService{
		history:      history,
		preferences:  preferences,
		consents:     consents,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// RecordGame appends a finished game to the history and remembers the
// player's name, country and difficulty. It reports false, and stores
// nothing, without preferences consent.
func (s *PlayerService) RecordGame(ctx context.Context, player domain.Player, entry domain.HistoryEntry) (bool, error) {
	if player.ID == "" || !s.consents.AllowsPersistence(ctx, player.ID) {
		return false, nil
	}
	return true, s.recordGame(ctx, player, entry)
}

// recordGame assumes consent was already checked.
func (s *PlayerService) recordGame(ctx context.Context, player domain.Player, entry domain.HistoryEntry) error {
	ttl := s.consents.Expiry()
	if err := s.history.AppendHistory(ctx, player.ID, entry, s.historyLimit, ttl); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	prefs := domain.Preferences{PlayerName: player.Name, Country: player.Country, Difficulty: entry.Difficulty}
	if err := s.preferences.SavePreferences(ctx, player.ID, prefs, ttl); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// History returns the finished games of the player, oldest first. Without
// consent the history is empty.
func (s *PlayerService) History(ctx context.Context, playerID string) ([]domain.HistoryEntry, error) {
	if playerID == "" || !s.consents.AllowsPersistence(ctx, playerID) {
		return []domain.HistoryEntry{}, nil
	}
	entries, err := s.history.History(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

// Preferences returns the saved preferences; domain.ErrPreferencesNotFound
// when none are stored or consent no longer allows reading them.
func (s *PlayerService) Preferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	if playerID == "" || !s.consents.AllowsPersistence(ctx, playerID) {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	return s.preferences.GetPreferences(ctx, playerID)
}

// SavePreferences stores the preferences explicitly. It fails with
// domain.ErrConsentRequired without preferences consent.
func (s *PlayerService) SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences) error {
	if playerID == "" {
		return fmt.Errorf("%w: missing player id", domain.ErrInvalidPlayer)
	}
	if prefs.Difficulty != "" && !prefs.Difficulty.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, prefs.Difficulty)
	}
	if !s.consents.AllowsPersistence(ctx, playerID) {
		return domain.ErrConsentRequired
	}
	return s.preferences.SavePreferences(ctx, playerID, prefs, s.consents.Expiry())
}

// Forget withdraws the consent of the player and erases their history and
// preferences. Every step is attempted; the errors are joined.
func (s *PlayerService) Forget(ctx context.Context, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: missing player id", domain.ErrInvalidPlayer)
	}
	err := errors.Join(
		s.consents.Withdraw(ctx, playerID),
		s.history.DeleteHistory(ctx, playerID),
		s.preferences.DeletePreferences(ctx, playerID),
	)
	if err != nil {
		s.logger.Warn("Player data not fully erased",
			slog.String("player_id", playerID),
			slog.Any("error", err),
		)
		return err
	}
	s.logger.Info("Player data erased", slog.String("player_id", playerID))
	return nil
}
