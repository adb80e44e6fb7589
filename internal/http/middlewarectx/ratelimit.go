package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"shaveden/internal/http/response"
)

// Грубый общий лимитер процесса для вебхук-эндпоинта. Точечные лимиты
// по пользователю живут в сервисе ratelimit, этот слой только защищает
// процесс от потока запросов.
var limiter = rate.NewLimiter(5, 10)

// RateLimitMiddleware ограничивает общий поток запросов через процесс.
func RateLimitMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
