package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// Gate решает, допускается ли пользователь к продукту.
type Gate interface {
	IsValid(ctx context.Context, userUID string) (bool, error)
}

// GateConfig отдаёт сообщение об истёкшей подписке и ссылку на оплату.
type GateConfig interface {
	Get(ctx context.Context) (*models.EnforcementConfig, error)
}

// EnforcementMiddleware создает middleware проверки подписки. Невалидный
// пользователь получает 403 с машинно-различимым кодом subscription_expired,
// настроенным сообщением и ссылкой на страницу оплаты.
func EnforcementMiddleware(gate Gate, gateConfig GateConfig, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.EnforcementMiddleware"

			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			valid, err := gate.IsValid(r.Context(), userUID)
			if err != nil {
				log.Error("failed to check subscription", slog.String("op", op), sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !valid {
				cfg, err := gateConfig.Get(r.Context())
				if err != nil {
					log.Error("failed to load enforcement config", slog.String("op", op), sl.Err(err))
					w.WriteHeader(http.StatusInternalServerError)
					render.JSON(w, r, response.Error("internal service error"))
					return
				}
				log.Info("subscription invalid, access denied", slog.String("user_uid", userUID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.SubscriptionExpired(cfg.ExpiredMessage, cfg.PortalURL))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin пропускает только пользователей с ролью admin.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role != models.RoleAdmin {
				log.Error("admin access denied", slog.String("role", role))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
