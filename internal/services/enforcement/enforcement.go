// Package enforcement реализует сервис конфигурации энфорсмента с кешем.
// Конфигурация читается при каждой проверке доступа, поэтому держится в
// redis и инвалидируется явно при обновлении администратором, а не
// перечитывается из Postgres на каждый запрос.
package enforcement

import (
	"context"
	"log/slog"
	"time"

	"shaveden/internal/models"
)

const configCacheKey = "enforcement:config"

// ConfigRepository описывает хранилище конфигурации энфорсмента.
type ConfigRepository interface {
	GetEnforcementConfig(ctx context.Context) (*models.EnforcementConfig, error)
	UpdateEnforcementConfig(ctx context.Context, cfg models.EnforcementConfig) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service кеширующий доступ к конфигурации энфорсмента.
type Service struct {
	repo  ConfigRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo ConfigRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Get возвращает конфигурацию из кеша или из базы. Ошибки кеша не фатальны:
// при недоступном redis конфигурация читается напрямую.
func (s *Service) Get(ctx context.Context) (*models.EnforcementConfig, error) {
	var cfg *models.EnforcementConfig
	found, err := s.cache.Get(configCacheKey, &cfg)
	if err != nil {
		s.log.Warn("failed to read config from cache", slog.Any("err", err))
	}
	if found && cfg != nil {
		return cfg, nil
	}

	cfg, err = s.repo.GetEnforcementConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(configCacheKey, cfg, time.Hour); err != nil {
		s.log.Warn("failed to cache config", slog.Any("err", err))
	}
	return cfg, nil
}

// Update записывает конфигурацию в базу и инвалидирует кеш. Значение
// заменяется целиком, на месте ничего не мутируется.
func (s *Service) Update(ctx context.Context, cfg models.EnforcementConfig) error {
	if err := s.repo.UpdateEnforcementConfig(ctx, cfg); err != nil {
		return err
	}
	if err := s.cache.Invalidate(configCacheKey); err != nil {
		s.log.Warn("failed to invalidate config cache", slog.Any("err", err))
	}
	s.log.Info("enforcement config updated",
		slog.Bool("enforcement_enabled", cfg.EnforcementEnabled),
		slog.Int("trial_days", cfg.TrialDays))
	return nil
}
