// Package razorcreate реализует добавление бритвы в коллекцию пользователя.
// Маршрут закрыт энфорсментом подписки.
package razorcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"shaveden/internal/http/middlewarectx"
	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// Service описывает добавление в коллекцию.
type Service interface {
	Create(ctx context.Context, userUID string, razor models.DummyRazor) (int, error)
}

// Handler обрабатывает HTTP-запросы добавления бритвы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавление бритвы
// @Description Добавляет бритву в коллекцию текущего пользователя.
// @Tags Collection
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyRazor true "Данные бритвы"
// @Success 201 {object} response.Response "Бритва добавлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Подписка неактивна"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /razors [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.collection.razorcreate"

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

	var req models.DummyRazor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create razor", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("razor created", slog.Int("razor_id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]int{"id": id}))
}
