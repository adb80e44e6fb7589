package repository

import (
	"context"
	"fmt"
)

// WasSentToday проверяет, отправлялось ли пользователю уведомление данного
// вида сегодня.
func (s *Storage) WasSentToday(ctx context.Context, userUID, kind string) (bool, error) {
	const op = "storage.WasSentToday"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM notification_log
			      WHERE user_uid = $1 AND kind = $2 AND sent_on = CURRENT_DATE
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// InsertSent фиксирует факт отправки уведомления за сегодняшнюю дату.
// Повторная вставка того же ключа молча игнорируется.
func (s *Storage) InsertSent(ctx context.Context, userUID, kind string) error {
	const op = "storage.InsertSent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO notification_log (user_uid, kind, sent_on)
			  VALUES ($1, $2, CURRENT_DATE)
			  ON CONFLICT (user_uid, kind, sent_on) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query, userUID, kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
