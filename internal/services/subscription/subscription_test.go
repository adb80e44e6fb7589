package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shaveden/internal/models"
	"shaveden/internal/storage/repository"
)

// Мок для StateStore
type StateStoreMock struct {
	mock.Mock
}

func (m *StateStoreMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *StateStoreMock) StartTrial(ctx context.Context, userUID string, trialDays int, source string) error {
	args := m.Called(ctx, userUID, trialDays, source)
	return args.Error(0)
}

func (m *StateStoreMock) Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error {
	args := m.Called(ctx, userUID, memberID, durationDays, source)
	return args.Error(0)
}

func (m *StateStoreMock) GrantLifetime(ctx context.Context, userUID string, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

func (m *StateStoreMock) Expire(ctx context.Context, userUID string, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

func (m *StateStoreMock) Cancel(ctx context.Context, userUID string, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

// Мок для ConfigProvider
type ConfigProviderMock struct {
	mock.Mock
}

func (m *ConfigProviderMock) Get(ctx context.Context) (*models.EnforcementConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnforcementConfig), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_IsValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name       string
		user       *models.User
		userErr    error
		config     *models.EnforcementConfig
		wantValid  bool
		wantErr    bool
		skipConfig bool
	}{
		{
			name:       "unknown user is invalid",
			userErr:    repository.ErrUserNotFound,
			wantValid:  false,
			skipConfig: true,
		},
		{
			name:       "admin always valid",
			user:       &models.User{UID: "u1", Role: models.RoleAdmin, SubscriptionStatus: models.StatusExpired},
			wantValid:  true,
			skipConfig: true,
		},
		{
			name:      "enforcement disabled allows expired",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusExpired},
			config:    &models.EnforcementConfig{EnforcementEnabled: false},
			wantValid: true,
		},
		{
			name:      "active subscription valid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusActive},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: true,
		},
		{
			name:      "lifetime subscription valid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusLifetime},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: true,
		},
		{
			name:      "trial before expiry valid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusTrial, SubscriptionExpiresAt: &future},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: true,
		},
		{
			name:      "trial after expiry invalid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusTrial, SubscriptionExpiresAt: &past},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: false,
		},
		{
			name:      "trial without expiry valid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusTrial},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: true,
		},
		{
			name:      "expired invalid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusExpired},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: false,
		},
		{
			name:      "cancelled invalid",
			user:      &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusCancelled},
			config:    &models.EnforcementConfig{EnforcementEnabled: true},
			wantValid: false,
		},
		{
			name:       "storage error surfaces",
			userErr:    errors.New("db down"),
			wantErr:    true,
			skipConfig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StateStoreMock)
			config := new(ConfigProviderMock)
			store.On("GetUser", mock.Anything, "u1").Return(tt.user, tt.userErr).Once()
			if !tt.skipConfig {
				config.On("Get", mock.Anything).Return(tt.config, nil).Once()
			}

			svc := New(store, config, newNoopLogger())
			svc.now = func() time.Time { return now }

			valid, err := svc.IsValid(context.Background(), "u1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, valid)
			store.AssertExpectations(t)
			config.AssertExpectations(t)
		})
	}
}

func TestService_StartTrial(t *testing.T) {
	store := new(StateStoreMock)
	config := new(ConfigProviderMock)
	config.On("Get", mock.Anything).Return(&models.EnforcementConfig{TrialDays: 7}, nil).Once()
	store.On("StartTrial", mock.Anything, "u1", 7, models.SourceRegistration).Return(nil).Once()

	svc := New(store, config, newNoopLogger())
	err := svc.StartTrial(context.Background(), "u1", models.SourceRegistration)
	require.NoError(t, err)
	store.AssertExpectations(t)
	config.AssertExpectations(t)
}

func TestService_Status(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	store := new(StateStoreMock)
	config := new(ConfigProviderMock)
	user := &models.User{UID: "u1", Role: models.RoleUser, SubscriptionStatus: models.StatusTrial, SubscriptionExpiresAt: &past}
	store.On("GetUser", mock.Anything, "u1").Return(user, nil)
	config.On("Get", mock.Anything).Return(&models.EnforcementConfig{
		EnforcementEnabled: true,
		ExpiredMessage:     "trial over",
		PortalURL:          "https://buymeacoffee.com/shaveden",
	}, nil)

	svc := New(store, config, newNoopLogger())
	svc.now = func() time.Time { return now }

	info, err := svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrial, info.Status)
	assert.False(t, info.Valid)
	assert.Equal(t, "trial over", info.Message)
	assert.Equal(t, "https://buymeacoffee.com/shaveden", info.PortalURL)
}
