package repository

import (
	"context"
	"fmt"

	"shaveden/internal/models"
)

// CreateRazor вставляет новую запись коллекции и возвращает её ID.
func (s *Storage) CreateRazor(ctx context.Context, userUID string, razor models.DummyRazor) (int, error) {
	const op = "storage.CreateRazor"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO razors (user_uid, name, brand, comment)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		userUID, razor.Name, razor.Brand, razor.Comment).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListRazors возвращает записи коллекции пользователя.
func (s *Storage) ListRazors(ctx context.Context, userUID string) ([]*models.Razor, error) {
	const op = "storage.ListRazors"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, name, brand, comment, created_at
			  FROM razors
			  WHERE user_uid = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Razor
	for rows.Next() {
		var item models.Razor
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Name, &item.Brand,
			&item.Comment, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
