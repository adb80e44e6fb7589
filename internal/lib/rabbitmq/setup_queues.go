package rabbitmq

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Имена очередей пайплайна уведомлений.
const (
	UserQueue  = "notification.user"
	AdminQueue = "notification.admin"
)

// GetNotificationQueues возвращает очереди воркера отправки писем:
// пользовательские уведомления об истечении подписки и административные
// уведомления о несопоставленных вебхуках.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: UserQueue, RoutingKey: "user"},
		{QueueName: AdminQueue, RoutingKey: "admin"},
	}
}
