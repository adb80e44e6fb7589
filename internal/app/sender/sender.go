// Package sender собирает воркер отправки писем: подключение к брокеру и
// потребление пользовательской и административной очередей.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"shaveden/internal/config"
	librabbit "shaveden/internal/lib/rabbitmq"
	"shaveden/internal/lib/smtp"
	"shaveden/internal/rabbitmq"
	senderservice "shaveden/internal/services/sender"
)

// App приложение отправки писем.
type App struct {
	senderService *senderservice.Service
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

// New создает приложение и его зависимости.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, librabbit.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.New(transport, logger)

	return &App{
		senderService: senderService,
		conn:          conn,
		ch:            ch,
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и блокируется до остановки
// контекста.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		_ = a.ch.Close()
		_ = a.conn.Close()
	}()

	for _, queue := range []string{librabbit.UserQueue, librabbit.AdminQueue} {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.senderService.HandleNotification); err != nil {
			return fmt.Errorf("failed to start consumer for %s: %w", queue, err)
		}
		a.logger.Info("consumer started", slog.String("queue", queue))
	}

	<-ctx.Done()
	return nil
}
