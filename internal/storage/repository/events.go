package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"shaveden/internal/models"
)

// InsertEvent дописывает событие в журнал аудита подписок. userUID равен
// nil для событий, которые не удалось сопоставить с пользователем.
func (s *Storage) InsertEvent(ctx context.Context, userUID *string, eventType string, details any) error {
	const op = "storage.InsertEvent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO subscription_events (user_uid, event_type, details)
			  VALUES ($1, $2, $3)`
	if _, err = s.DB.ExecContext(ctx, query, userUID, eventType, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListEvents возвращает события аудита с пагинацией, новые первыми.
// Журнал доступен операторам только на чтение.
func (s *Storage) ListEvents(ctx context.Context, limit, offset int) ([]*models.SubscriptionEvent, error) {
	const op = "storage.ListEvents"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, event_type, details, created_at
			  FROM subscription_events
			  ORDER BY id DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionEvent
	for rows.Next() {
		var e models.SubscriptionEvent
		if err := rows.Scan(&e.ID, &e.UserUID, &e.EventType, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
