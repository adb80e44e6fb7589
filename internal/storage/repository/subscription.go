package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shaveden/internal/models"
)

// applyTransition выполняет переход машины состояний одной транзакцией:
// читает старый статус с блокировкой строки, обновляет колонки подписки и
// дописывает событие аудита. Событие не может быть пропущено ни при каком
// переходе, включая принудительные административные.
func (s *Storage) applyTransition(ctx context.Context, op, userUID, eventType, newStatus, source string,
	startedAt, expiresAt *time.Time, memberID *string, keepDates bool) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var oldStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT subscription_status FROM users WHERE uid = $1 FOR UPDATE`, userUID).Scan(&oldStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if keepDates {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET subscription_status = $1 WHERE uid = $2`, newStatus, userUID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET subscription_status = $1,
			     subscription_started_at = $2,
			     subscription_expires_at = $3,
			     member_id = COALESCE($4, member_id)
			 WHERE uid = $5`,
			newStatus, startedAt, expiresAt, memberID, userUID)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	details, err := json.Marshal(map[string]any{
		"old_status": oldStatus,
		"new_status": newStatus,
		"source":     source,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscription_events (user_uid, event_type, details) VALUES ($1, $2, $3)`,
		userUID, eventType, details)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StartTrial переводит пользователя в статус trial с окном в trialDays дней.
func (s *Storage) StartTrial(ctx context.Context, userUID string, trialDays int, source string) error {
	now := time.Now()
	expiresAt := now.AddDate(0, 0, trialDays)
	return s.applyTransition(ctx, "storage.StartTrial", userUID,
		models.EventTrialStarted, models.StatusTrial, source, &now, &expiresAt, nil, false)
}

// Activate переводит пользователя в статус active на durationDays дней.
// Окно всегда отсчитывается от текущего момента, продление не суммируется
// с остатком предыдущего периода.
func (s *Storage) Activate(ctx context.Context, userUID string, memberID *string, durationDays int, source string) error {
	now := time.Now()
	expiresAt := now.AddDate(0, 0, durationDays)
	return s.applyTransition(ctx, "storage.Activate", userUID,
		models.EventActivated, models.StatusActive, source, &now, &expiresAt, memberID, false)
}

// GrantLifetime выдаёт бессрочную подписку: статус lifetime, дата истечения NULL.
func (s *Storage) GrantLifetime(ctx context.Context, userUID string, source string) error {
	now := time.Now()
	return s.applyTransition(ctx, "storage.GrantLifetime", userUID,
		models.EventLifetimeGranted, models.StatusLifetime, source, &now, nil, nil, false)
}

// Expire переводит пользователя в статус expired. Повторный вызов для уже
// истёкшего пользователя даёт то же итоговое состояние.
func (s *Storage) Expire(ctx context.Context, userUID string, source string) error {
	return s.applyTransition(ctx, "storage.Expire", userUID,
		models.EventExpired, models.StatusExpired, source, nil, nil, nil, true)
}

// Cancel переводит пользователя в статус cancelled.
func (s *Storage) Cancel(ctx context.Context, userUID string, source string) error {
	return s.applyTransition(ctx, "storage.Cancel", userUID,
		models.EventCancelled, models.StatusCancelled, source, nil, nil, nil, true)
}
