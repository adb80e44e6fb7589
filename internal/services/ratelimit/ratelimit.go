// Package ratelimit реализует универсальный счётчик попыток с фиксированным
// окном. Компонент не знает, что именно он защищает: пороги, окна и формат
// идентификатора выбирает вызывающая сторона.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// CounterRepository описывает хранилище счётчиков попыток.
type CounterRepository interface {
	DeleteExpiredCounter(ctx context.Context, identifier, action string, window time.Duration) error
	GetCounter(ctx context.Context, identifier, action string) (*models.RateLimitCounter, error)
	UpsertCounter(ctx context.Context, identifier, action string) error
	DeleteCounter(ctx context.Context, identifier, action string) error
}

// Service реализует лимитер с фиксированным окном поверх хранилища.
type Service struct {
	repo CounterRepository
	log  *slog.Logger
}

// New создает новый Service.
func New(repo CounterRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// IsLimited проверяет, исчерпан ли лимит попыток для пары (identifier,
// action). Сначала лениво удаляется полностью истёкший счётчик этой пары,
// затем читается остаток: нет строки — лимита нет. Сброс окна происходит
// как побочный эффект самой проверки, а не только регистрации попытки.
// При ошибке хранилища действие считается ещё не ограниченным, ошибка
// отдаётся вызывающему.
func (s *Service) IsLimited(ctx context.Context, identifier, action string, maxAttempts int, window time.Duration) (bool, error) {
	if err := s.repo.DeleteExpiredCounter(ctx, identifier, action, window); err != nil {
		s.log.Error("failed to clean up expired counter", sl.Err(err))
		return false, err
	}
	counter, err := s.repo.GetCounter(ctx, identifier, action)
	if err != nil {
		s.log.Error("failed to read counter", sl.Err(err))
		return false, err
	}
	if counter == nil {
		return false, nil
	}
	return counter.Attempts >= maxAttempts, nil
}

// Hit регистрирует попытку: сбрасывает истёкший счётчик и атомарно
// инкрементирует оставшийся либо заводит новый.
func (s *Service) Hit(ctx context.Context, identifier, action string, window time.Duration) error {
	if err := s.repo.DeleteExpiredCounter(ctx, identifier, action, window); err != nil {
		s.log.Error("failed to clean up expired counter", sl.Err(err))
		return err
	}
	return s.repo.UpsertCounter(ctx, identifier, action)
}

// Clear безусловно удаляет счётчик пары, прощая прежние неудачи —
// например, после успешного входа.
func (s *Service) Clear(ctx context.Context, identifier, action string) error {
	return s.repo.DeleteCounter(ctx, identifier, action)
}
