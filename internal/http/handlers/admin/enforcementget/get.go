// Package enforcementget реализует выдачу конфигурации энфорсмента
// администратору. Токен провайдера в ответ не попадает: он доступен
// только на запись.
package enforcementget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// Service описывает доступ к конфигурации энфорсмента.
type Service interface {
	Get(ctx context.Context) (*models.EnforcementConfig, error)
}

// Handler обрабатывает HTTP-запросы чтения конфигурации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Конфигурация энфорсмента
// @Description Возвращает текущую конфигурацию. Токен провайдера не возвращается.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Конфигурация"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/enforcement [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.enforcementget"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cfg, err := h.service.Get(r.Context())
	if err != nil {
		log.Error("failed to get enforcement config", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	// Копия без токена: значение никогда не показывается повторно.
	out := *cfg
	out.ProviderToken = ""
	render.JSON(w, r, response.OKWithData(out))
}
