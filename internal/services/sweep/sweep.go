// Package sweep реализует плановый обход подписок: перевод просроченных в
// expired и рассылку предупреждений о скором окончании триала и оплаченного
// периода. Обход идемпотентен: повторный запуск в тот же день не создаёт
// ни дублей переходов, ни дублей писем.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// UserLister находит пользователей для обхода.
type UserLister interface {
	FindPastDue(ctx context.Context) ([]*models.User, error)
	FindTrialsExpiringOn(ctx context.Context, daysAhead int) ([]*models.User, error)
	FindActiveExpiringOn(ctx context.Context, daysAhead int) ([]*models.User, error)
}

// SubscriptionManager применяет переходы состояний.
type SubscriptionManager interface {
	Expire(ctx context.Context, userUID, source string) error
}

// Notifier отправляет уведомления.
type Notifier interface {
	Send(ctx context.Context, email, kind string, data map[string]string) error
}

// Deduper журнал дедупликации уведомлений.
type Deduper interface {
	WasSentToday(ctx context.Context, userUID, kind string) (bool, error)
	LogSent(ctx context.Context, userUID, kind string) error
}

// Service плановый обход подписок.
type Service struct {
	users    UserLister
	subs     SubscriptionManager
	notifier Notifier
	dedup    Deduper
	warnDays int
	log      *slog.Logger
}

// New создает новый Service. warnDays — за сколько дней до окончания
// отправляется предупреждение.
func New(users UserLister, subs SubscriptionManager, notifier Notifier,
	dedup Deduper, warnDays int, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		subs:     subs,
		notifier: notifier,
		dedup:    dedup,
		warnDays: warnDays,
		log:      log,
	}
}

// Run выполняет один полный обход. Три прохода независимы: сбой одного не
// останавливает остальные, ошибка по одному пользователю не прерывает
// остальных. Возвращается первая встреченная ошибка списочного запроса.
func (s *Service) Run(ctx context.Context) error {
	const op = "services.sweep.Run"
	s.log.Info("sweep started", slog.Int("warn_days", s.warnDays))

	var firstErr error
	if err := s.expirePastDue(ctx); err != nil {
		s.log.Error("past-due pass failed", sl.Err(err))
		firstErr = fmt.Errorf("%s: %w", op, err)
	}
	if err := s.warnExpiring(ctx, s.users.FindTrialsExpiringOn, models.KindTrialWarning); err != nil {
		s.log.Error("trial warning pass failed", sl.Err(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := s.warnExpiring(ctx, s.users.FindActiveExpiringOn, models.KindRenewalReminder); err != nil {
		s.log.Error("renewal reminder pass failed", sl.Err(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("sweep finished")
	return firstErr
}

// expirePastDue переводит в expired подписки, чей срок уже прошёл, и
// уведомляет владельцев.
func (s *Service) expirePastDue(ctx context.Context) error {
	users, err := s.users.FindPastDue(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := s.subs.Expire(ctx, user.UID, models.SourceSweep); err != nil {
			s.log.Error("failed to expire subscription",
				slog.String("user_uid", user.UID), sl.Err(err))
			continue
		}
		s.notifyOnce(ctx, user, models.KindExpired, nil)
	}
	s.log.Info("past-due pass finished", slog.Int("count", len(users)))
	return nil
}

// warnExpiring рассылает предупреждения пользователям, чья подписка
// истекает через warnDays дней.
func (s *Service) warnExpiring(ctx context.Context,
	find func(ctx context.Context, daysAhead int) ([]*models.User, error), kind string) error {
	users, err := find(ctx, s.warnDays)
	if err != nil {
		return err
	}
	for _, user := range users {
		data := map[string]string{"days_left": fmt.Sprintf("%d", s.warnDays)}
		if user.SubscriptionExpiresAt != nil {
			data["expires_at"] = user.SubscriptionExpiresAt.Format("2006-01-02")
		}
		s.notifyOnce(ctx, user, kind, data)
	}
	s.log.Info("warning pass finished",
		slog.String("kind", kind), slog.Int("count", len(users)))
	return nil
}

// notifyOnce отправляет уведомление с дневной дедупликацией: проверка
// журнала, отправка, запись — строго в этом порядке. Журнал пополняется
// только после успешной отправки, поэтому сбой отправки означает повтор
// при следующем запуске, а не потерянное письмо.
func (s *Service) notifyOnce(ctx context.Context, user *models.User, kind string, data map[string]string) {
	sent, err := s.dedup.WasSentToday(ctx, user.UID, kind)
	if err != nil {
		s.log.Error("failed to check notification ledger",
			slog.String("user_uid", user.UID), sl.Err(err))
		return
	}
	if sent {
		return
	}
	if err := s.notifier.Send(ctx, user.Email, kind, data); err != nil {
		s.log.Error("failed to send notification",
			slog.String("user_uid", user.UID), slog.String("kind", kind), sl.Err(err))
		return
	}
	if err := s.dedup.LogSent(ctx, user.UID, kind); err != nil {
		s.log.Error("failed to log sent notification",
			slog.String("user_uid", user.UID), sl.Err(err))
	}
}
