// Package shaveden предоставляет маршруты для основного приложения.
package shaveden

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"shaveden/internal/http/handlers/admin/enforcementget"
	"shaveden/internal/http/handlers/admin/enforcementupdate"
	"shaveden/internal/http/handlers/admin/eventslist"
	"shaveden/internal/http/handlers/admin/subscriptionoverride"
	"shaveden/internal/http/handlers/auth/login"
	"shaveden/internal/http/handlers/auth/register"
	"shaveden/internal/http/handlers/collection/razorcreate"
	"shaveden/internal/http/handlers/collection/razorlist"
	"shaveden/internal/http/handlers/health"
	"shaveden/internal/http/handlers/subscription/status"
	"shaveden/internal/http/handlers/webhook/bmac"
	"shaveden/internal/http/middlewarectx"
	"shaveden/internal/lib/jwt"
	authservice "shaveden/internal/services/auth"
	collectionservice "shaveden/internal/services/collection"
	enforcementservice "shaveden/internal/services/enforcement"
	ratelimitservice "shaveden/internal/services/ratelimit"
	subscriptionservice "shaveden/internal/services/subscription"
	webhookservice "shaveden/internal/services/webhook"
	"shaveden/internal/storage/repository"
)

// Services зависимости HTTP-слоя.
type Services struct {
	JWTMaker     jwt.Maker
	Auth         *authservice.Service
	Limiter      *ratelimitservice.Service
	Subscription *subscriptionservice.Service
	Enforcement  *enforcementservice.Service
	Webhook      *webhookservice.Service
	Collection   *collectionservice.Service
	Storage      *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth, s.Limiter).ServeHTTP)

		// Вебхук провайдера: без JWT, но за грубым лимитером процесса.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/webhooks/bmac", bmac.New(logger, s.Webhook, s.Enforcement, s.Storage).ServeHTTP)
		})

		// Группа с JWT аутентификацией без проверки подписки: состояние
		// подписки должно быть видно и с истёкшей подпиской.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, logger))
			r.Get("/subscription", status.New(logger, s.Subscription).ServeHTTP)
		})

		// Группа под энфорсментом подписки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, logger))
			r.Use(middlewarectx.EnforcementMiddleware(s.Subscription, s.Enforcement, logger))
			r.Get("/razors", razorlist.New(logger, s.Collection).ServeHTTP)
			r.Post("/razors", razorcreate.New(logger, s.Collection).ServeHTTP)
		})

		// Административная группа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, logger))
			r.Use(middlewarectx.RequireAdmin(logger))
			r.Get("/admin/enforcement", enforcementget.New(logger, s.Enforcement).ServeHTTP)
			r.Put("/admin/enforcement", enforcementupdate.New(logger, s.Enforcement).ServeHTTP)
			r.Put("/admin/subscription", subscriptionoverride.New(logger, s.Subscription).ServeHTTP)
			r.Get("/admin/events", eventslist.New(logger, s.Storage).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
