// Package bmac реализует приём вебхуков Buy Me a Coffee.
//
// Это единственная точка, где неаутентифицированный внешний ввод может
// двигать машину состояний подписки, поэтому порядок действий жёсткий:
// тело запроса журналируется до любой проверки, затем сверяется подпись,
// затем разбирается JSON и только после этого событие передаётся сервису.
// Отклонённый запрос тоже остаётся в журнале для разбора.
package bmac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/models"
	webhookservice "shaveden/internal/services/webhook"
)

// SignatureHeader заголовок с HMAC-SHA256 подписью тела в hex.
const SignatureHeader = "X-Bmac-Signature"

// maxBodySize ограничивает размер принимаемого тела вебхука.
const maxBodySize = 1 << 20

// Service описывает обработку распознанных событий провайдера.
type Service interface {
	ProcessEvent(ctx context.Context, event models.WebhookEvent) error
}

// ConfigProvider отдаёт секрет вебхука.
type ConfigProvider interface {
	Get(ctx context.Context) (*models.EnforcementConfig, error)
}

// Recorder журналирует сырые тела вебхуков.
type Recorder interface {
	InsertWebhookLog(ctx context.Context, body []byte, signature string) (int, error)
}

// Handler обрабатывает HTTP-запросы вебхуков провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	config   ConfigProvider
	recorder Recorder
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, config ConfigProvider, recorder Recorder) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		config:   config,
		recorder: recorder,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает события Buy Me a Coffee. Подпись проверяется по HMAC-SHA256.
// @Tags Webhook
// @Accept  json
// @Produce  json
// @Param X-Bmac-Signature header string true "HMAC-SHA256 подпись тела (hex)"
// @Success 200 {object} map[string]string "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /webhooks/bmac [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.bmac"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}
	signature := r.Header.Get(SignatureHeader)

	// Сырое тело сохраняется до вердикта: журнал нужен именно тогда,
	// когда запрос будет отклонён.
	logID, err := h.recorder.InsertWebhookLog(r.Context(), body, signature)
	if err != nil {
		log.Error("failed to log webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	log = log.With(slog.Int("webhook_log_id", logID))

	cfg, err := h.config.Get(r.Context())
	if err != nil {
		log.Error("failed to load config", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	// Без настроенного секрета вебхуки принимаются без проверки подписи.
	// Это режим первоначальной настройки, о нём предупреждаем на каждом
	// запросе.
	if cfg.WebhookSecret == "" {
		log.Warn("webhook secret is not configured, accepting unverified webhook")
	} else if !webhookservice.VerifySignature(body, signature, cfg.WebhookSecret) {
		log.Error("webhook signature rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if event.Type == "" {
		log.Error("webhook type missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing event type"))
		return
	}
	if isMembershipEvent(event.Type) && event.Data.Email() == "" {
		log.Error("webhook email missing", slog.String("type", event.Type))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing supporter email"))
		return
	}

	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("webhook processed", slog.String("type", event.Type))
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func isMembershipEvent(eventType string) bool {
	switch eventType {
	case models.WebhookMembershipStarted, models.WebhookMembershipRenewed,
		models.WebhookMembershipCancelled, models.WebhookMembershipExpired:
		return true
	}
	return false
}
