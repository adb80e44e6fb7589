// Package subscriptionoverride реализует принудительное выставление статуса
// подписки администратором. Машина состояний не запрещает ни один переход
// для администратора; каждый переход попадает в журнал аудита с источником
// admin.
package subscriptionoverride

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
)

// defaultDurationDays окно активации, если администратор не указал своё.
const defaultDurationDays = 30

// Request — структура входных данных для смены статуса подписки.
type Request struct {
	UserUID      string `json:"user_uid" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=trial active lifetime expired cancelled"`
	DurationDays int    `json:"duration_days" validate:"gte=0"`
}

// Service описывает переходы машины состояний подписки.
type Service interface {
	StartTrial(ctx context.Context, userUID, source string) error
	Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error
	GrantLifetime(ctx context.Context, userUID, source string) error
	Expire(ctx context.Context, userUID, source string) error
	Cancel(ctx context.Context, userUID, source string) error
}

// Handler обрабатывает HTTP-запросы принудительной смены статуса.
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
// @Summary Принудительная смена статуса подписки
// @Description Выставляет пользователю любой статус подписки. Переход записывается в аудит с источником admin.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Пользователь и целевой статус"
// @Success 200 {object} response.Response "Статус изменён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/subscription [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptionoverride"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	if err := h.apply(r.Context(), req); err != nil {
		log.Error("failed to override subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("subscription status overridden",
		slog.String("user_uid", req.UserUID), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(map[string]string{
		"user_uid": req.UserUID,
		"status":   req.Status,
	}))
}

func (h *Handler) apply(ctx context.Context, req Request) error {
	switch req.Status {
	case models.StatusTrial:
		return h.service.StartTrial(ctx, req.UserUID, models.SourceAdmin)
	case models.StatusActive:
		days := req.DurationDays
		if days == 0 {
			days = defaultDurationDays
		}
		return h.service.Activate(ctx, req.UserUID, nil, days, models.SourceAdmin)
	case models.StatusLifetime:
		return h.service.GrantLifetime(ctx, req.UserUID, models.SourceAdmin)
	case models.StatusExpired:
		return h.service.Expire(ctx, req.UserUID, models.SourceAdmin)
	case models.StatusCancelled:
		return h.service.Cancel(ctx, req.UserUID, models.SourceAdmin)
	}
	return nil
}
