// Package models содержит доменные структуры приложения: пользователей,
// состояние подписки, конфигурацию энфорсмента, события аудита и уведомления.
package models

import "time"

// Роли пользователей системы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы вместе
// с состоянием его подписки. Состояние подписки хранится колонками на
// записи пользователя и изменяется только операциями машины состояний.
type User struct {
	UID                   string     // Уникальный идентификатор пользователя
	Email                 string     // Электронная почта
	Username              string     // Имя пользователя (уникальное)
	PasswordHash          string     // Хэш пароля пользователя
	Role                  string     // Роль пользователя, admin или user
	IsDeleted             bool       // Признак мягкого удаления аккаунта
	SubscriptionStatus    string     // Текущий статус подписки
	SubscriptionStartedAt *time.Time // Дата начала текущего периода
	SubscriptionExpiresAt *time.Time // Дата истечения, NULL для lifetime
	MemberID              *string    // Идентификатор участника у платёжного провайдера
}
