package repository

import (
	"context"
	"fmt"

	"shaveden/internal/models"
)

// GetEnforcementConfig возвращает единственную строку конфигурации энфорсмента.
func (s *Storage) GetEnforcementConfig(ctx context.Context) (*models.EnforcementConfig, error) {
	const op = "storage.GetEnforcementConfig"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT enforcement_enabled, trial_days, expired_message,
			      webhook_secret, provider_token, portal_url
			  FROM enforcement_config
			  WHERE id = 1`
	var cfg models.EnforcementConfig
	if err := s.DB.QueryRowContext(ctx, query,
	).Scan(&cfg.EnforcementEnabled, &cfg.TrialDays, &cfg.ExpiredMessage,
		&cfg.WebhookSecret, &cfg.ProviderToken, &cfg.PortalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// UpdateEnforcementConfig обновляет конфигурацию энфорсмента. Пустой
// provider_token означает "оставить прежний": токен доступен только на
// запись и никогда не возвращается в интерфейс администратора.
func (s *Storage) UpdateEnforcementConfig(ctx context.Context, cfg models.EnforcementConfig) error {
	const op = "storage.UpdateEnforcementConfig"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE enforcement_config
			  SET enforcement_enabled = $1,
			      trial_days = $2,
			      expired_message = $3,
			      webhook_secret = $4,
			      provider_token = CASE WHEN $5 = '' THEN provider_token ELSE $5 END,
			      portal_url = $6
			  WHERE id = 1`
	_, err := s.DB.ExecContext(ctx, query,
		cfg.EnforcementEnabled, cfg.TrialDays, cfg.ExpiredMessage,
		cfg.WebhookSecret, cfg.ProviderToken, cfg.PortalURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
