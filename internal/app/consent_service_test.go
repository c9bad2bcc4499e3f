package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"gdpr-quiz-service/internal/domain"
	"gdpr-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsentLevels(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewConsentServiceWithClock(memory.NewConsentStore(), "1.0", 180*24*time.Hour, func() time.Time { return now })

	tests := []struct {
		name   string
		level  domain.ConsentLevel
		custom domain.Consents
		want   domain.Consents
	}{
		{"all", domain.ConsentAll, domain.Consents{}, domain.Consents{Necessary: true, Preferences: true, Analytics: true}},
		{"necessary", domain.ConsentNecessary, domain.Consents{Preferences: true}, domain.Consents{Necessary: true}},
		{"custom", domain.ConsentCustom, domain.Consents{Preferences: true}, domain.Consents{Necessary: true, Preferences: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consent, err := svc.Give(ctx, "player-"+tt.name, tt.level, tt.custom)
			require.NoError(t, err)
			assert.Equal(t, tt.want, consent.Consents)
			assert.Equal(t, "1.0", consent.Version)
			assert.True(t, consent.Date.Equal(now))

			current, err := svc.Current(ctx, "player-"+tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, current.Consents)
			assert.Equal(t, tt.want.Preferences, svc.AllowsPersistence(ctx, "player-"+tt.name))
		})
	}
}

func TestConsentRejectsBadInput(t *testing.T) {
	svc := NewConsentService(memory.NewConsentStore(), "1.0", time.Hour, discardLogger())

	_, err := svc.Give(context.Background(), "", domain.ConsentAll, domain.Consents{})
	require.ErrorIs(t, err, domain.ErrInvalidPlayer)

	_, err = svc.Give(context.Background(), "p1", domain.ConsentLevel("everything"), domain.Consents{})
	require.ErrorIs(t, err, domain.ErrInvalidConsentLevel)
}

func TestConsentVersionAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewConsentStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	old := NewConsentServiceWithClock(store, "0.9", 0, clock)
	_, err := old.Give(ctx, "p1", domain.ConsentAll, domain.Consents{})
	require.NoError(t, err)

	current := NewConsentServiceWithClock(store, "1.0", 24*time.Hour, clock)
	_, err = current.Current(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrConsentNotFound, "older consent version must be asked again")
	assert.False(t, current.AllowsPersistence(ctx, "p1"))

	_, err = current.Give(ctx, "p2", domain.ConsentAll, domain.Consents{})
	require.NoError(t, err)
	assert.True(t, current.AllowsPersistence(ctx, "p2"))

	now = now.Add(25 * time.Hour)
	_, err = current.Current(ctx, "p2")
	require.ErrorIs(t, err, domain.ErrConsentNotFound)
	assert.False(t, current.AllowsPersistence(ctx, "p2"))
}

func TestConsentWithdraw(t *testing.T) {
	ctx := context.Background()
	svc := NewConsentService(memory.NewConsentStore(), "1.0", time.Hour, discardLogger())

	_, err := svc.Give(ctx, "p1", domain.ConsentAll, domain.Consents{})
	require.NoError(t, err)
	require.True(t, svc.AllowsPersistence(ctx, "p1"))

	require.NoError(t, svc.Withdraw(ctx, "p1"))
	_, err = svc.Current(ctx, "p1")
	require.ErrorIs(t, err, domain.ErrConsentNotFound, "banner is shown again")
	assert.False(t, svc.AllowsPersistence(ctx, "p1"))

	require.ErrorIs(t, svc.Withdraw(ctx, ""), domain.ErrInvalidPlayer)
	require.Error(t, NewConsentService(brokenConsentStore{}, "1.0", time.Hour, discardLogger()).Withdraw(ctx, "p1"))
}

func TestAllowsPersistenceDeniesOnStoreFailure(t *testing.T) {
	svc := NewConsentService(brokenConsentStore{}, "1.0", time.Hour, discardLogger())
	assert.False(t, svc.AllowsPersistence(context.Background(), "p1"))
	assert.False(t, svc.AllowsPersistence(context.Background(), ""))
}

type brokenConsentStore struct{}

func (brokenConsentStore) GetConsent(context.Context, string) (domain.Consent, error) {
	return domain.Consent{}, errors.New("connection reset")
}

func (brokenConsentStore) SaveConsent(context.Context, string, domain.Consent, time.Duration) error {
	return errors.New("connection reset")
}

func (brokenConsentStore) DeleteConsent(context.Context, string) error {
	return errors.New("connection reset")
}
