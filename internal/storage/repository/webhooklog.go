package repository

import (
	"context"
	"fmt"
)

// InsertWebhookLog сохраняет сырое тело вебхука вместе с подписью для
// последующего разбора. Запись делается до проверки подписи, чтобы
// отклонённые запросы тоже оставались в журнале.
func (s *Storage) InsertWebhookLog(ctx context.Context, body []byte, signature string) (int, error) {
	const op = "storage.InsertWebhookLog"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int
	query := `INSERT INTO webhook_log (body, signature) VALUES ($1, $2) RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, body, signature).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// MarkWebhookProcessed атомарно помечает событие провайдера обработанным.
// Возвращает false, если пара (тип, идентификатор события) уже встречалась:
// повторная доставка того же события не должна двигать машину состояний.
func (s *Storage) MarkWebhookProcessed(ctx context.Context, eventType, providerEventID string) (bool, error) {
	const op = "storage.MarkWebhookProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_webhook_events (event_type, provider_event_id)
              VALUES ($1, $2)
              ON CONFLICT (event_type, provider_event_id) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query, eventType, providerEventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rows > 0, nil
}
