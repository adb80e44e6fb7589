// Package sweep собирает приложение планового обхода подписок.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"shaveden/internal/cache"
	"shaveden/internal/config"
	librabbit "shaveden/internal/lib/rabbitmq"
	"shaveden/internal/lib/sl"
	"shaveden/internal/rabbitmq"
	dedupservice "shaveden/internal/services/dedup"
	enforcementservice "shaveden/internal/services/enforcement"
	notifyservice "shaveden/internal/services/notify"
	subscriptionservice "shaveden/internal/services/subscription"
	sweepservice "shaveden/internal/services/sweep"
	"shaveden/internal/storage/repository"
)

// App приложение планового обхода.
type App struct {
	sweepService *sweepservice.Service
	interval     time.Duration
	conn         *amqp.Connection
	ch           *amqp.Channel
	db           *repository.Storage
	logger       *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает приложение обхода и его зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, librabbit.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	enforcementService := enforcementservice.New(db, cacheRedis, logger)
	subscriptionService := subscriptionservice.New(db, enforcementService, logger)
	notifyService := notifyservice.New(ch, logger)
	dedupService := dedupservice.New(db, logger)
	sweepService := sweepservice.New(db, subscriptionService, notifyService, dedupService, cfg.WarnDays, logger)

	return &App{
		sweepService: sweepService,
		interval:     cfg.SweepInterval,
		conn:         conn,
		ch:           ch,
		db:           db,
		logger:       logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run выполняет обход сразу при старте, затем по расписанию до остановки
// контекста.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		closeResources(a.ch, a.conn, a.logger)
		_ = a.db.DB.Close()
	}()

	if err := a.sweepService.Run(ctx); err != nil {
		a.logger.Error("sweep run failed", sl.Err(err))
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.sweepService.Run(ctx); err != nil {
				a.logger.Error("sweep run failed", sl.Err(err))
			}
		}
	}
}
