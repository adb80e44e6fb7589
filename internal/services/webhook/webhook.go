// Package webhook реализует обработку событий Buy Me a Coffee: проверку
// подписи на границе доверия и применение событий членства к состоянию
// подписки. Провайдер присылает события по email сторонника; сопоставление
// с аккаунтом выполняется по этому email.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
	"shaveden/internal/storage/repository"
)

// Длительности членства в днях. Годовой уровень распознаётся по подстроке
// "year" в названии уровня, всё остальное считается месячным.
const (
	yearlyDurationDays  = 365
	monthlyDurationDays = 30
)

var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shaveden_webhook_events_total",
	Help: "Количество обработанных вебхук-событий по типу и исходу.",
}, []string{"type", "outcome"})

// UserFinder ищет аккаунты для сопоставления с событиями провайдера.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

// SubscriptionManager применяет переходы состояний к подпискам.
type SubscriptionManager interface {
	Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error
	Expire(ctx context.Context, userUID, source string) error
	Cancel(ctx context.Context, userUID, source string) error
}

// EventRecorder пишет события аудита.
type EventRecorder interface {
	InsertEvent(ctx context.Context, userUID *string, eventType string, details any) error
}

// ProcessedTracker защищает от повторной доставки одного события провайдера.
type ProcessedTracker interface {
	MarkWebhookProcessed(ctx context.Context, eventType, providerEventID string) (bool, error)
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

// Service обработчик событий провайдера платежей.
type Service struct {
	users     UserFinder
	subs      SubscriptionManager
	events    EventRecorder
	processed ProcessedTracker
	notifier  Notifier
	dedup     Deduper
	log       *slog.Logger
}

// New создает новый Service.
func New(users UserFinder, subs SubscriptionManager, events EventRecorder,
	processed ProcessedTracker, notifier Notifier, dedup Deduper, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		subs:      subs,
		events:    events,
		processed: processed,
		notifier:  notifier,
		dedup:     dedup,
		log:       log,
	}
}

// VerifySignature проверяет HMAC-SHA256 подпись тела запроса. Подпись
// передаётся hex-строкой; сравнение выполняется в константное время над
// декодированными байтами. Пустой секрет или пустая подпись дают false:
// функция только сравнивает, решение о работе без секрета принимает
// вызывающая сторона.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// ProcessEvent применяет распознанное событие провайдера. Ошибка означает
// сбой хранилища; неизвестный тип события и несопоставленный email ошибками
// не являются и фиксируются событиями аудита.
func (s *Service) ProcessEvent(ctx context.Context, event models.WebhookEvent) error {
	const op = "services.webhook.ProcessEvent"

	switch event.Type {
	case models.WebhookMembershipStarted, models.WebhookMembershipRenewed,
		models.WebhookMembershipCancelled, models.WebhookMembershipExpired:
	default:
		s.log.Info("ignoring unsupported webhook type", slog.String("type", event.Type))
		if err := s.events.InsertEvent(ctx, nil, models.EventWebhookIgnored, map[string]string{
			"type": event.Type,
		}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		eventsProcessed.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	// Провайдер переотправляет события при сбоях доставки. Если событие
	// несёт идентификатор, уже виденные экземпляры не двигают состояние
	// повторно, а сразу подтверждаются.
	if eventID := event.Data.ID; eventID != "" {
		fresh, err := s.processed.MarkWebhookProcessed(ctx, event.Type, eventID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !fresh {
			s.log.Info("skipping already processed webhook event",
				slog.String("type", event.Type), slog.String("event_id", eventID))
			eventsProcessed.WithLabelValues(event.Type, "duplicate").Inc()
			return nil
		}
	}

	email := event.Data.Email()
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		eventsProcessed.WithLabelValues(event.Type, "unmatched").Inc()
		return s.handleUnmatched(ctx, event, email)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch event.Type {
	case models.WebhookMembershipStarted, models.WebhookMembershipRenewed:
		var memberID *string
		if id := event.Data.MemberID(); id != "" {
			memberID = &id
		}
		duration := membershipDuration(event.Data.MembershipLevel)
		if err := s.subs.Activate(ctx, user.UID, memberID, duration, models.SourceWebhook); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case models.WebhookMembershipCancelled:
		if err := s.subs.Cancel(ctx, user.UID, models.SourceWebhook); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case models.WebhookMembershipExpired:
		if err := s.subs.Expire(ctx, user.UID, models.SourceWebhook); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.notifyExpired(ctx, user)
	}

	eventsProcessed.WithLabelValues(event.Type, "applied").Inc()
	return nil
}

// handleUnmatched фиксирует событие без владельца и уведомляет
// администраторов: деньги пришли, а пользователь не опознан — это требует
// ручного вмешательства.
func (s *Service) handleUnmatched(ctx context.Context, event models.WebhookEvent, email string) error {
	const op = "services.webhook.handleUnmatched"

	s.log.Warn("webhook did not match any user",
		slog.String("type", event.Type), slog.String("email", email))
	if err := s.events.InsertEvent(ctx, nil, models.EventWebhookUnmatch, map[string]string{
		"type":  event.Type,
		"email": email,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.log.Error("failed to list admins for unmatched webhook", sl.Err(err))
		return nil
	}
	for _, admin := range admins {
		if err := s.notifier.Send(ctx, admin.Email, models.KindUnmatchedWebhook, map[string]string{
			"event_type":      event.Type,
			"supporter_email": email,
		}); err != nil {
			s.log.Error("failed to notify admin about unmatched webhook",
				slog.String("admin_email", admin.Email), sl.Err(err))
		}
	}
	return nil
}

// notifyExpired шлёт пользователю письмо об истечении подписки, не больше
// одного в день. Сбой отправки не откатывает уже применённый переход.
func (s *Service) notifyExpired(ctx context.Context, user *models.User) {
	sent, err := s.dedup.WasSentToday(ctx, user.UID, models.KindExpired)
	if err != nil {
		s.log.Error("failed to check notification ledger", sl.Err(err))
		return
	}
	if sent {
		return
	}
	if err := s.notifier.Send(ctx, user.Email, models.KindExpired, nil); err != nil {
		s.log.Error("failed to send expiry notification",
			slog.String("user_uid", user.UID), sl.Err(err))
		return
	}
	if err := s.dedup.LogSent(ctx, user.UID, models.KindExpired); err != nil {
		s.log.Error("failed to log sent notification", sl.Err(err))
	}
}

func membershipDuration(level string) int {
	if strings.Contains(strings.ToLower(level), "year") {
		return yearlyDurationDays
	}
	return monthlyDurationDays
}
