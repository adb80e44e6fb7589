// Package dedup реализует журнал дедупликации уведомлений: запись
// "уведомление вида K отправлено пользователю U в день D" делает повторную
// отправку того же вида в тот же день подавляемой.
//
// Контракт вызывающей стороны: проверить, отправить, записать — именно в
// этом порядке. Падение между отправкой и записью может дать дубль при
// следующем запуске; это осознанный компромисс at-least-once в пользу
// информированности пользователя.
package dedup

import (
	"context"
	"log/slog"
)

// LedgerRepository описывает хранилище журнала отправленных уведомлений.
type LedgerRepository interface {
	WasSentToday(ctx context.Context, userUID, kind string) (bool, error)
	InsertSent(ctx context.Context, userUID, kind string) error
}

// Service журнал дедупликации уведомлений.
type Service struct {
	repo LedgerRepository
	log  *slog.Logger
}

// New создает новый Service.
func New(repo LedgerRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// WasSentToday проверяет, отправлялось ли уведомление вида kind сегодня.
func (s *Service) WasSentToday(ctx context.Context, userUID, kind string) (bool, error) {
	return s.repo.WasSentToday(ctx, userUID, kind)
}

// LogSent фиксирует успешную отправку уведомления за сегодняшнюю дату.
func (s *Service) LogSent(ctx context.Context, userUID, kind string) error {
	if err := s.repo.InsertSent(ctx, userUID, kind); err != nil {
		return err
	}
	s.log.Info("notification logged",
		slog.String("user_uid", userUID), slog.String("kind", kind))
	return nil
}
