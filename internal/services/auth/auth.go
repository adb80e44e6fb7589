// Package auth реализует регистрацию и вход пользователей. Регистрация
// сразу запускает пробный период: отдельного шага активации нет.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shaveden/internal/lib/password"
	"shaveden/internal/models"
	"shaveden/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
// Несуществующий пользователь и неверный пароль неразличимы снаружи.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	RegisterUser(ctx context.Context, email, username, passwordHash, role string) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TrialStarter запускает пробный период для нового аккаунта.
type TrialStarter interface {
	StartTrial(ctx context.Context, userUID, source string) error
}

// TokenMaker выпускает JWT-токены.
type TokenMaker interface {
	GenerateToken(username, userUID, role string) (string, error)
}

// Service операции аутентификации.
type Service struct {
	repo   UserRepository
	trial  TrialStarter
	tokens TokenMaker
	log    *slog.Logger
}

// New создает новый Service.
func New(repo UserRepository, trial TrialStarter, tokens TokenMaker, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		trial:  trial,
		tokens: tokens,
		log:    log,
	}
}

// Register создаёт аккаунт и запускает пробный период. Возвращает UID
// нового пользователя.
func (s *Service) Register(ctx context.Context, email, username, plainPassword string) (string, error) {
	const op = "services.auth.Register"

	hash, err := password.GetHash(plainPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.repo.RegisterUser(ctx, email, username, hash, models.RoleUser)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.trial.StartTrial(ctx, uid, models.SourceRegistration); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_uid", uid), slog.String("username", username))
	return uid, nil
}

// Login проверяет учётные данные и выпускает токен.
func (s *Service) Login(ctx context.Context, username, plainPassword string) (string, error) {
	const op = "services.auth.Login"

	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, plainPassword); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.Username, user.UID, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged in", slog.String("user_uid", user.UID))
	return token, nil
}
