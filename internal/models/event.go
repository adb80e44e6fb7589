package models

import (
	"encoding/json"
	"time"
)

// Типы событий аудита подписок.
const (
	EventTrialStarted    = "subscription.trial_started"
	EventActivated       = "subscription.activated"
	EventLifetimeGranted = "subscription.lifetime_granted"
	EventExpired         = "subscription.expired"
	EventCancelled       = "subscription.cancelled"
	EventWebhookUnmatch  = "webhook.unmatched"
	EventWebhookIgnored  = "webhook.ignored"
)

// SubscriptionEvent запись журнала аудита переходов подписки.
// UserUID равен nil, если входящее событие не удалось сопоставить
// с пользователем. Журнал только пополняется, записи не изменяются.
type SubscriptionEvent struct {
	ID        int             `json:"id"`
	UserUID   *string         `json:"user_uid"`
	EventType string          `json:"event_type"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}
