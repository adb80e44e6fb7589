package models

// EnforcementConfig глобальная конфигурация энфорсмента подписок,
// хранится единственной строкой в базе и кешируется в redis.
// ProviderToken доступен только на запись: API никогда не возвращает его.
type EnforcementConfig struct {
	EnforcementEnabled bool   `json:"enforcement_enabled"`
	TrialDays          int    `json:"trial_days" validate:"required,gte=1"`
	ExpiredMessage     string `json:"expired_message"`
	WebhookSecret      string `json:"webhook_secret"`
	ProviderToken      string `json:"provider_token,omitempty"`
	PortalURL          string `json:"portal_url"`
}
