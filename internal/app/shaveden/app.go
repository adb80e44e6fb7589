// Package shaveden собирает основное HTTP-приложение: хранилище, кеш,
// брокер уведомлений, сервисы и маршруты.
package shaveden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"shaveden/internal/cache"
	"shaveden/internal/config"
	"shaveden/internal/lib/jwt"
	librabbit "shaveden/internal/lib/rabbitmq"
	"shaveden/internal/migrations"
	"shaveden/internal/rabbitmq"
	authservice "shaveden/internal/services/auth"
	collectionservice "shaveden/internal/services/collection"
	dedupservice "shaveden/internal/services/dedup"
	enforcementservice "shaveden/internal/services/enforcement"
	notifyservice "shaveden/internal/services/notify"
	ratelimitservice "shaveden/internal/services/ratelimit"
	subscriptionservice "shaveden/internal/services/subscription"
	webhookservice "shaveden/internal/services/webhook"
	"shaveden/internal/storage/repository"
)

// App основное HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает приложение и все его зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, librabbit.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	enforcementService := enforcementservice.New(db, cacheRedis, logger)
	subscriptionService := subscriptionservice.New(db, enforcementService, logger)
	limiterService := ratelimitservice.New(db, logger)
	dedupService := dedupservice.New(db, logger)
	notifyService := notifyservice.New(ch, logger)
	webhookService := webhookservice.New(db, subscriptionService, db, db, notifyService, dedupService, logger)
	authService := authservice.New(db, subscriptionService, jwtMaker, logger)
	collectionService := collectionservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		JWTMaker:     jwtMaker,
		Auth:         authService,
		Limiter:      limiterService,
		Subscription: subscriptionService,
		Enforcement:  enforcementService,
		Webhook:      webhookService,
		Collection:   collectionService,
		Storage:      db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает сервер и блокируется до остановки контекста либо ошибки.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.ch.Close()
		_ = a.conn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
