// Package razorlist реализует выдачу коллекции бритв пользователя.
// Маршрут закрыт энфорсментом подписки.
package razorlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"shaveden/internal/http/middlewarectx"
	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// Service описывает чтение коллекции.
type Service interface {
	List(ctx context.Context, userUID string) ([]*models.Razor, error)
}

// Handler обрабатывает HTTP-запросы чтения коллекции.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Коллекция бритв
// @Description Возвращает коллекцию текущего пользователя.
// @Tags Collection
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Коллекция"
// @Failure 403 {object} response.ErrorResponse "Подписка неактивна"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /razors [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.collection.razorlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	razors, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list razors", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"razors": razors,
		"count":  len(razors),
	}))
}
