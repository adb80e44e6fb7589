// Package subscription реализует машину состояний подписки и предикат
// энфорсмента. Переходы записываются хранилищем атомарно вместе с
// событием аудита; сервис добавляет поверх вычисление длительностей из
// конфигурации и правило валидности.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shaveden/internal/models"
	"shaveden/internal/storage/repository"
)

// StateStore описывает операции хранилища над состоянием подписки.
type StateStore interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	StartTrial(ctx context.Context, userUID string, trialDays int, source string) error
	Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error
	GrantLifetime(ctx context.Context, userUID string, source string) error
	Expire(ctx context.Context, userUID string, source string) error
	Cancel(ctx context.Context, userUID string, source string) error
}

// ConfigProvider отдаёт актуальную конфигурацию энфорсмента.
type ConfigProvider interface {
	Get(ctx context.Context) (*models.EnforcementConfig, error)
}

// Service реализует операции машины состояний подписки.
type Service struct {
	store  StateStore
	config ConfigProvider
	log    *slog.Logger
	now    func() time.Time
}

// New создает новый Service.
func New(store StateStore, config ConfigProvider, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		config: config,
		now:    time.Now,
		log:    log,
	}
}

// StartTrial запускает пробный период с окном trial_days из конфигурации.
// Повторный вызов сбрасывает окно заново, поэтому вызывается только при
// создании аккаунта.
func (s *Service) StartTrial(ctx context.Context, userUID, source string) error {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.store.StartTrial(ctx, userUID, cfg.TrialDays, source); err != nil {
		return err
	}
	s.log.Info("trial started", slog.String("user_uid", userUID), slog.Int("trial_days", cfg.TrialDays))
	return nil
}

// Activate активирует подписку на durationDays дней, сохраняя при наличии
// идентификатор участника у провайдера. Окно отсчитывается от текущего
// момента и при продлении не складывается с остатком.
func (s *Service) Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error {
	if err := s.store.Activate(ctx, userUID, memberID, durationDays, source); err != nil {
		return err
	}
	s.log.Info("subscription activated",
		slog.String("user_uid", userUID), slog.Int("duration_days", durationDays))
	return nil
}

// GrantLifetime выдаёт бессрочную подписку.
func (s *Service) GrantLifetime(ctx context.Context, userUID, source string) error {
	if err := s.store.GrantLifetime(ctx, userUID, source); err != nil {
		return err
	}
	s.log.Info("lifetime granted", slog.String("user_uid", userUID))
	return nil
}

// Expire переводит подписку в статус expired.
func (s *Service) Expire(ctx context.Context, userUID, source string) error {
	if err := s.store.Expire(ctx, userUID, source); err != nil {
		return err
	}
	s.log.Info("subscription expired", slog.String("user_uid", userUID))
	return nil
}

// Cancel переводит подписку в статус cancelled.
func (s *Service) Cancel(ctx context.Context, userUID, source string) error {
	if err := s.store.Cancel(ctx, userUID, source); err != nil {
		return err
	}
	s.log.Info("subscription cancelled", slog.String("user_uid", userUID))
	return nil
}

// IsValid предикат энфорсмента: решает, допускается ли пользователь к
// продукту. Администратор всегда валиден, проверка выполняется до чтения
// состояния подписки, чтобы исключить самоблокировку. При выключенном
// энфорсменте валиден любой пользователь. Неизвестный пользователь невалиден.
func (s *Service) IsValid(ctx context.Context, userUID string) (bool, error) {
	user, err := s.store.GetUser(ctx, userUID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if user.Role == models.RoleAdmin {
		return true, nil
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return false, err
	}
	if !cfg.EnforcementEnabled {
		return true, nil
	}

	switch user.SubscriptionStatus {
	case models.StatusActive, models.StatusLifetime:
		return true, nil
	case models.StatusTrial:
		if user.SubscriptionExpiresAt == nil {
			return true, nil
		}
		return s.now().Before(*user.SubscriptionExpiresAt), nil
	default:
		return false, nil
	}
}

// Status возвращает состояние подписки пользователя для выдачи в API.
func (s *Service) Status(ctx context.Context, userUID string) (*models.SubscriptionInfo, error) {
	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	valid, err := s.IsValid(ctx, userUID)
	if err != nil {
		return nil, err
	}

	info := &models.SubscriptionInfo{
		Status:    user.SubscriptionStatus,
		ExpiresAt: user.SubscriptionExpiresAt,
		Valid:     valid,
		PortalURL: cfg.PortalURL,
	}
	if !valid {
		info.Message = cfg.ExpiredMessage
	}
	return info, nil
}
