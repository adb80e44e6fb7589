// Package sender реализует воркер доставки писем: читает уведомления из
// очередей RabbitMQ и отправляет их по SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"shaveden/internal/lib/smtp"
	"shaveden/internal/models"
)

// Service воркер отправки писем.
type Service struct {
	transport smtp.Transporter
	log       *slog.Logger
}

// New создает новый Service.
func New(transport smtp.Transporter, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// HandleNotification обрабатывает сообщение из очереди: ошибка возвращает
// сообщение в очередь на повтор.
func (s *Service) HandleNotification(body []byte) error {
	const op = "services.sender.HandleNotification"

	var msg models.Notification
	if err := json.Unmarshal(body, &msg); err != nil {
		// Нечитаемое сообщение бессмысленно гонять по кругу.
		s.log.Error("failed to decode notification", slog.Any("err", err))
		return nil
	}

	subject, text := composeEmail(msg)
	if err := s.sendEmail(msg.Email, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("email sent", slog.String("id", msg.ID),
		slog.String("email", msg.Email), slog.String("kind", msg.Kind))
	return nil
}

// sendEmail отправляет одно письмо через SMTP-транспорт.
func (s *Service) sendEmail(to, subject, text string) error {
	const op = "services.sender.sendEmail"

	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.transport.GetSMTPUser(), to, subject, text)
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return client.Quit()
}

// composeEmail собирает тему и текст письма по виду уведомления.
func composeEmail(msg models.Notification) (string, string) {
	switch msg.Kind {
	case models.KindTrialWarning:
		return "Your ShaveDen trial is ending soon",
			fmt.Sprintf("Your trial ends on %s (%s days left). Subscribe to keep access to your den.",
				msg.Context["expires_at"], msg.Context["days_left"])
	case models.KindRenewalReminder:
		return "Your ShaveDen subscription expires soon",
			fmt.Sprintf("Your subscription expires on %s (%s days left). Renew to keep access to your den.",
				msg.Context["expires_at"], msg.Context["days_left"])
	case models.KindExpired:
		return "Your ShaveDen subscription has expired",
			"Your subscription has expired. Renew to regain access to your den."
	case models.KindUnmatchedWebhook:
		var b strings.Builder
		b.WriteString("A payment provider webhook did not match any account.\r\n")
		for key, value := range msg.Context {
			fmt.Fprintf(&b, "%s: %s\r\n", key, value)
		}
		return "ShaveDen: unmatched payment webhook", b.String()
	default:
		return "ShaveDen notification", "You have a new notification from ShaveDen."
	}
}
