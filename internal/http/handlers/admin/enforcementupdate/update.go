// Package enforcementupdate реализует обновление конфигурации энфорсмента.
//
// Пустое значение токена провайдера означает "оставить прежний": админка
// никогда не видит текущий токен и не должна затирать его при сохранении
// остальных полей.
package enforcementupdate

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

// Request — структура входных данных для обновления конфигурации.
type Request struct {
	EnforcementEnabled bool   `json:"enforcement_enabled"`
	TrialDays          int    `json:"trial_days" validate:"required,gte=1"`
	ExpiredMessage     string `json:"expired_message"`
	WebhookSecret      string `json:"webhook_secret"`
	ProviderToken      string `json:"provider_token"`
	PortalURL          string `json:"portal_url"`
}

// Service описывает обновление конфигурации энфорсмента.
type Service interface {
	Update(ctx context.Context, cfg models.EnforcementConfig) error
}

// Handler обрабатывает HTTP-запросы обновления конфигурации.
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
// @Summary Обновление конфигурации энфорсмента
// @Description Сохраняет конфигурацию. Пустой токен провайдера сохраняет прежнее значение.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Новая конфигурация"
// @Success 200 {object} response.Response "Конфигурация сохранена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/enforcement [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.enforcementupdate"

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

	cfg := models.EnforcementConfig{
		EnforcementEnabled: req.EnforcementEnabled,
		TrialDays:          req.TrialDays,
		ExpiredMessage:     req.ExpiredMessage,
		WebhookSecret:      req.WebhookSecret,
		ProviderToken:      req.ProviderToken,
		PortalURL:          req.PortalURL,
	}
	if err := h.service.Update(r.Context(), cfg); err != nil {
		log.Error("failed to update enforcement config", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("enforcement config updated")
	render.JSON(w, r, response.OKWithData(map[string]string{"result": "updated"}))
}
