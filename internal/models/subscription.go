package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы подписки.
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
	SubscriptionTest    = "test"
)

// Параметры пробной подписки, выдаваемой при регистрации.
const (
	TrialPeriod = 45 * 24 * time.Hour
	DefaultPlan = "basic"
)

// Subscription одна подписка на пользователя. Пользователь может её только читать,
// статус и срок меняют системные процессы.
type Subscription struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	ExpirationDate time.Time `json:"expiration_date"`
	Plan           string    `json:"plan"`
	CreatedAt      time.Time `json:"created_at"`
}

// AllowsSales сообщает, разрешает ли подписка регистрировать продажи в момент now.
// Продажа запрещена начиная с самого момента истечения.
func (s *Subscription) AllowsSales(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SubscriptionActive && s.Status != SubscriptionTest {
		return false
	}
	return now.Before(s.ExpirationDate)
}

// DummySubscriptionUpdate тело запроса системного пути на смену состояния подписки.
type DummySubscriptionUpdate struct {
	Status         string    `json:"status" validate:"required,oneof=active expired test"`
	ExpirationDate time.Time `json:"expiration_date"`
	Plan           string    `json:"plan" validate:"omitempty,max=50"`
}

// SubscriptionEvent сообщение о жизненном цикле подписки для брокера.
type SubscriptionEvent struct {
	Type           string    `json:"type"`
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email,omitempty"`
	Status         string    `json:"status"`
	Plan           string    `json:"plan"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// Типы событий жизненного цикла.
const (
	EventSubscriptionExpired  = "subscription.expired"
	EventSubscriptionExpiring = "subscription.expiring"
)

// SubscriptionInfo подписка вместе с адресом владельца для уведомлений.
type SubscriptionInfo struct {
	Subscription
	Email string
}
