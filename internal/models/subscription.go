package models

import "time"

// Статусы подписки. Стандартный жизненный цикл:
// trial -> active -> expired|cancelled, lifetime достижим из любого статуса
// и не истекает. Администратор может принудительно выставить любой статус.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusLifetime  = "lifetime"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Источники переходов машины состояний, попадают в журнал событий.
const (
	SourceRegistration = "registration"
	SourceWebhook      = "webhook"
	SourceSweep        = "sweep"
	SourceAdmin        = "admin"
)

// SubscriptionInfo агрегирует состояние подписки пользователя для выдачи
// в API: статус, дата истечения и ссылка на портал оплаты.
type SubscriptionInfo struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Valid     bool       `json:"valid"`
	Message   string     `json:"message,omitempty"`
	PortalURL string     `json:"portal_url,omitempty"`
}
