// Package collection реализует операции над коллекцией бритв пользователя.
package collection

import (
	"context"
	"log/slog"

	"shaveden/internal/models"
)

// RazorRepository описывает хранилище коллекции.
type RazorRepository interface {
	CreateRazor(ctx context.Context, userUID string, razor models.DummyRazor) (int, error)
	ListRazors(ctx context.Context, userUID string) ([]*models.Razor, error)
}

// Service операции над коллекцией.
type Service struct {
	repo RazorRepository
	log  *slog.Logger
}

// New создает новый Service.
func New(repo RazorRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create добавляет бритву в коллекцию пользователя.
func (s *Service) Create(ctx context.Context, userUID string, razor models.DummyRazor) (int, error) {
	id, err := s.repo.CreateRazor(ctx, userUID, razor)
	if err != nil {
		return 0, err
	}
	s.log.Info("razor added",
		slog.String("user_uid", userUID), slog.Int("razor_id", id))
	return id, nil
}

// List возвращает коллекцию пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Razor, error) {
	return s.repo.ListRazors(ctx, userUID)
}
