package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shaveden/internal/models"
)

// DeleteExpiredCounter удаляет счётчик пары (identifier, action), если его
// окно полностью истекло. Ленивая очистка вместо фонового процесса.
func (s *Storage) DeleteExpiredCounter(ctx context.Context, identifier, action string, window time.Duration) error {
	const op = "storage.DeleteExpiredCounter"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM rate_limit_counters
			  WHERE identifier = $1 AND action = $2
			    AND first_attempt_at < now() - ($3 * INTERVAL '1 second')`
	_, err := s.DB.ExecContext(ctx, query, identifier, action, window.Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetCounter возвращает счётчик пары (identifier, action), nil если его нет.
func (s *Storage) GetCounter(ctx context.Context, identifier, action string) (*models.RateLimitCounter, error) {
	const op = "storage.GetCounter"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT identifier, action, attempts, first_attempt_at, last_attempt_at
			  FROM rate_limit_counters
			  WHERE identifier = $1 AND action = $2`
	var c models.RateLimitCounter
	err := s.DB.QueryRowContext(ctx, query, identifier, action).Scan(
		&c.Identifier, &c.Action, &c.Attempts, &c.FirstAttemptAt, &c.LastAttemptAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// UpsertCounter атомарно регистрирует попытку: вставляет новый счётчик или
// инкрементирует существующий. Гонка двух конкурентных вызовов не может
// породить две "первые" строки благодаря ON CONFLICT.
func (s *Storage) UpsertCounter(ctx context.Context, identifier, action string) error {
	const op = "storage.UpsertCounter"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO rate_limit_counters (identifier, action, attempts, first_attempt_at, last_attempt_at)
			  VALUES ($1, $2, 1, now(), now())
			  ON CONFLICT (identifier, action)
			  DO UPDATE SET attempts = rate_limit_counters.attempts + 1,
			                last_attempt_at = now()`
	_, err := s.DB.ExecContext(ctx, query, identifier, action)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteCounter безусловно удаляет счётчик, например после успешного входа.
func (s *Storage) DeleteCounter(ctx context.Context, identifier, action string) error {
	const op = "storage.DeleteCounter"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM rate_limit_counters WHERE identifier = $1 AND action = $2`
	_, err := s.DB.ExecContext(ctx, query, identifier, action)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
