package models

import "time"

// Виды пользовательских и административных уведомлений.
// Вид вместе с датой отправки образует ключ дедупликации.
const (
	KindTrialWarning     = "trial_warning"
	KindRenewalReminder  = "renewal_reminder"
	KindExpired          = "subscription_expired"
	KindUnmatchedWebhook = "unmatched_webhook"
)

// Notification сообщение для воркера отправки писем, публикуется в RabbitMQ.
// ID присваивается при публикации и служит для сквозной трассировки письма
// в логах издателя и воркера.
type Notification struct {
	ID      string            `json:"id"`
	Email   string            `json:"email"`
	Kind    string            `json:"kind"`
	Context map[string]string `json:"context,omitempty"`
}

// RateLimitCounter счётчик попыток для пары (идентификатор, действие).
// Идентификатор выбирает вызывающая сторона: IP, email, uid и т.д.
type RateLimitCounter struct {
	Identifier     string
	Action         string
	Attempts       int
	FirstAttemptAt time.Time
	LastAttemptAt  time.Time
}
