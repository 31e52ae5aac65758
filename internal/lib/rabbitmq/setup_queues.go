package rabbitmq

import "github.com/magabrotheeeer/pos-store/internal/models"

// QueueConfig очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSubscriptionQueues очереди событий жизненного цикла подписок.
// Ключ маршрутизации совпадает с типом события.
func GetSubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscription.expired", RoutingKey: models.EventSubscriptionExpired},
		{QueueName: "subscription.expiring", RoutingKey: models.EventSubscriptionExpiring},
	}
}
