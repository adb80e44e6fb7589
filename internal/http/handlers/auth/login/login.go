// Package login реализует HTTP-обработчик аутентификации пользователей.
//
// Помимо проверки учётных данных обработчик ведёт счётчик неудачных
// попыток по паре (IP, имя пользователя): пять неудач за пятнадцать минут
// блокируют дальнейшие попытки до конца окна, успешный вход прощает
// накопленные неудачи.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"shaveden/internal/http/response"
	"shaveden/internal/lib/sl"
	"shaveden/internal/services/auth"
)

// Политика лимита попыток входа. Лимитер сам по себе политики не знает.
const (
	loginAction      = "login"
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute
)

// Request — структура входных данных для авторизации.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Limiter описывает счётчик попыток входа.
type Limiter interface {
	IsLimited(ctx context.Context, identifier, action string, maxAttempts int, window time.Duration) (bool, error)
	Hit(ctx context.Context, identifier, action string, window time.Duration) error
	Clear(ctx context.Context, identifier, action string) error
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log         *slog.Logger
	authService Service
	limiter     Limiter
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service, limiter Limiter) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		limiter:     limiter,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по имени и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	identifier := clientIP(r) + ":" + req.Username
	limited, err := h.limiter.IsLimited(r.Context(), identifier, loginAction, loginMaxAttempts, loginWindow)
	if err != nil {
		log.Error("failed to check rate limit", sl.Err(err))
	}
	if limited {
		log.Info("login rate limit exceeded", slog.String("identifier", identifier))
		w.WriteHeader(http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("too many login attempts, try again later"))
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		if hitErr := h.limiter.Hit(r.Context(), identifier, loginAction, loginWindow); hitErr != nil {
			log.Error("failed to register login attempt", sl.Err(hitErr))
		}
		log.Info("invalid credentials", slog.String("username", req.Username))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	if err := h.limiter.Clear(r.Context(), identifier, loginAction); err != nil {
		log.Error("failed to clear rate limit", sl.Err(err))
	}

	log.Info("login success", slog.String("username", req.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":    token,
		"username": req.Username,
	}))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
