package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gdpr-quiz-service/internal/domain"
)

// ConsentService records banner choices and answers whether a player allows
// their results to be stored.
type ConsentService struct {
	store   ConsentStore
	version string
	expiry  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewConsentService(store ConsentStore, version string, expiry time.Duration, logger *slog.Logger) *ConsentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsentService{
		store:   store,
		version: version,
		expiry:  expiry,
		logger:  logger,
		now:     time.Now,
	}
}

// NewConsentServiceWithClock is test-only for deterministic expiry.
func NewConsentServiceWithClock(store ConsentStore, version string, expiry time.Duration, now func() time.Time) *ConsentService {
	s := NewConsentService(store, version, expiry, slog.Default())
	s.now = now
	return s
}

// Give stores the player's choice. For ConsentCustom the preferences and
// analytics flags are taken from custom; necessary is always granted.
func (s *ConsentService) Give(ctx context.Context, playerID string, level domain.ConsentLevel, custom domain.Consents) (domain.Consent, error) {
	if playerID == "" {
		return domain.Consent{}, fmt.Errorf("%w: missing player id", domain.ErrInvalidPlayer)
	}

	var consents domain.Consents
	switch level {
	case domain.ConsentAll:
		consents = domain.Consents{Necessary: true, Preferences: true, Analytics: true}
	case domain.ConsentNecessary:
		consents = domain.Consents{Necessary: true}
	case domain.ConsentCustom:
		consents = domain.Consents{Necessary: true, Preferences: custom.Preferences, Analytics: custom.Analytics}
	default:
		return domain.Consent{}, fmt.Errorf("%w: %q", domain.ErrInvalidConsentLevel, level)
	}

	consent := domain.Consent{
		Consents: consents,
		Date:     s.now().UTC(),
		Version:  s.version,
	}
	if err := s.store.SaveConsent(ctx, playerID, consent, s.expiry); err != nil {
		return domain.Consent{}, fmt.Errorf("save consent: %w", err)
	}
	s.logger.Info("Consent recorded",
		slog.String("player_id", playerID),
		slog.String("level", string(level)),
		slog.Bool("preferences", consents.Preferences),
		slog.Bool("analytics", consents.Analytics),
	)
	return consent, nil
}

// Current returns the stored consent when it matches the current version and
// has not expired; otherwise domain.ErrConsentNotFound, meaning the banner
// has to be shown again.
func (s *ConsentService) Current(ctx context.Context, playerID string) (domain.Consent, error) {
	if playerID == "" {
		return domain.Consent{}, domain.ErrConsentNotFound
	}
	consent, err := s.store.GetConsent(ctx, playerID)
	if err != nil {
		return domain.Consent{}, err
	}
	if consent.Version != s.version {
		return domain.Consent{}, fmt.Errorf("%w: version %q superseded by %q", domain.ErrConsentNotFound, consent.Version, s.version)
	}
	if s.expiry > 0 && s.now().After(consent.Date.Add(s.expiry)) {
		return domain.Consent{}, fmt.Errorf("%w: expired", domain.ErrConsentNotFound)
	}
	return consent, nil
}

// Withdraw forgets the consent of the player, so the banner is shown again.
func (s *ConsentService) Withdraw(ctx context.Context, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: missing player id", domain.ErrInvalidPlayer)
	}
	if err := s.store.DeleteConsent(ctx, playerID); err != nil {
		return fmt.Errorf("delete consent: %w", err)
	}
	s.logger.Info("Consent withdrawn", slog.String("player_id", playerID))
	return nil
}

// Expiry is how long a given consent stays valid; 0 means forever.
func (s *ConsentService) Expiry() time.Duration {
	return s.expiry
}

// AllowsPersistence reports whether results of the player may be stored.
// Lookup failures deny.
func (s *ConsentService) AllowsPersistence(ctx context.Context, playerID string) bool {
	consent, err := s.Current(ctx, playerID)
	if err != nil {
		if !errors.Is(err, domain.ErrConsentNotFound) {
			s.logger.Warn("Consent lookup failed, not persisting",
				slog.String("player_id", playerID),
				slog.Any("error", err),
			)
		}
		return false
	}
	return consent.Consents.Preferences
}
