// Package notify реализует отправку уведомлений через RabbitMQ: сообщение
// публикуется в обменник notifications, воркер отправки писем доставляет
// его по SMTP. Публикация синхронно возвращает успех или ошибку, что
// достаточно для журнала дедупликации.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"shaveden/internal/lib/rabbitmq"
	"shaveden/internal/models"
)

// Service публикует уведомления в очередь.
type Service struct {
	ch  *amqp.Channel
	log *slog.Logger
}

// New создает новый Service.
func New(ch *amqp.Channel, log *slog.Logger) *Service {
	return &Service{ch: ch, log: log}
}

// Send публикует уведомление для адресата email. Уведомления о
// несопоставленных вебхуках уходят в административную очередь, остальные —
// в пользовательскую.
func (s *Service) Send(_ context.Context, email, kind string, data map[string]string) error {
	routingKey := "user"
	if kind == models.KindUnmatchedWebhook {
		routingKey = "admin"
	}

	msg := models.Notification{
		ID:      uuid.NewString(),
		Email:   email,
		Kind:    kind,
		Context: data,
	}
	if err := rabbitmq.PublishMessage(s.ch, "notifications", routingKey, msg); err != nil {
		return err
	}
	s.log.Info("notification published", slog.String("id", msg.ID),
		slog.String("email", email), slog.String("kind", kind))
	return nil
}
