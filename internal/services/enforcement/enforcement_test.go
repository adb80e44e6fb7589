package enforcement

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
)

// Мок для ConfigRepository
type ConfigRepoMock struct {
	mock.Mock
}

func (m *ConfigRepoMock) GetEnforcementConfig(ctx context.Context) (*models.EnforcementConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EnforcementConfig), args.Error(1)
}

func (m *ConfigRepoMock) UpdateEnforcementConfig(ctx context.Context, cfg models.EnforcementConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if args.Bool(0) {
		if ptr, ok := result.(**models.EnforcementConfig); ok {
			*ptr = args.Get(2).(*models.EnforcementConfig)
		}
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Get_CacheHit(t *testing.T) {
	repo := new(ConfigRepoMock)
	cache := new(CacheMock)
	cached := &models.EnforcementConfig{EnforcementEnabled: true, TrialDays: 7}
	cache.On("Get", configCacheKey, mock.Anything).Return(true, nil, cached).Once()

	svc := New(repo, cache, newNoopLogger())
	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, cfg)
	repo.AssertNotCalled(t, "GetEnforcementConfig", mock.Anything)
}

func TestService_Get_CacheMissReadsRepo(t *testing.T) {
	repo := new(ConfigRepoMock)
	cache := new(CacheMock)
	stored := &models.EnforcementConfig{TrialDays: 14}
	cache.On("Get", configCacheKey, mock.Anything).Return(false, nil, nil).Once()
	repo.On("GetEnforcementConfig", mock.Anything).Return(stored, nil).Once()
	cache.On("Set", configCacheKey, stored, time.Hour).Return(nil).Once()

	svc := New(repo, cache, newNoopLogger())
	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, cfg)
	cache.AssertExpectations(t)
}

func TestService_Get_CacheErrorFallsBackToRepo(t *testing.T) {
	repo := new(ConfigRepoMock)
	cache := new(CacheMock)
	stored := &models.EnforcementConfig{TrialDays: 7}
	cache.On("Get", configCacheKey, mock.Anything).Return(false, errors.New("redis down"), nil).Once()
	repo.On("GetEnforcementConfig", mock.Anything).Return(stored, nil).Once()
	cache.On("Set", configCacheKey, stored, time.Hour).Return(errors.New("redis down")).Once()

	svc := New(repo, cache, newNoopLogger())
	cfg, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, cfg)
}

func TestService_Update_InvalidatesCache(t *testing.T) {
	repo := new(ConfigRepoMock)
	cache := new(CacheMock)
	next := models.EnforcementConfig{EnforcementEnabled: true, TrialDays: 10}
	repo.On("UpdateEnforcementConfig", mock.Anything, next).Return(nil).Once()
	cache.On("Invalidate", configCacheKey).Return(nil).Once()

	svc := New(repo, cache, newNoopLogger())
	err := svc.Update(context.Background(), next)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Update_RepoErrorKeepsCache(t *testing.T) {
	repo := new(ConfigRepoMock)
	cache := new(CacheMock)
	next := models.EnforcementConfig{TrialDays: 10}
	repo.On("UpdateEnforcementConfig", mock.Anything, next).Return(errors.New("db down")).Once()

	svc := New(repo, cache, newNoopLogger())
	err := svc.Update(context.Background(), next)
	assert.Error(t, err)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)
}
