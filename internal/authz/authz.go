// Package authz реализует построчную политику доступа к данным магазина.
//
// Policy.Authorize вызывается сервисами перед каждым чтением и записью и решает,
// может ли субъект выполнить операцию над конкретной строкой. Отказ по владельцу
// неотличим от отсутствия строки (ErrNotFound), отказ по подписке при создании
// продажи возвращается отдельно (ErrSubscriptionInactive).
package authz

import (
	"errors"

	"github.com/google/uuid"
)

// Operation тип операции над строкой.
type Operation int

const (
	// OpUnspecified некорректная операция, всегда запрещена.
	OpUnspecified Operation = iota
	// OpRead чтение строки.
	OpRead
	// OpInsert создание строки.
	OpInsert
	// OpUpdate изменение строки.
	OpUpdate
	// OpDelete удаление строки.
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// Entity сущность, к которой применяется политика.
type Entity int

const (
	EntityUnspecified Entity = iota
	EntityProfile
	EntityCategory
	EntityProduct
	EntitySubscription
	EntitySale
	EntitySaleItem
)

func (e Entity) String() string {
	switch e {
	case EntityProfile:
		return "profile"
	case EntityCategory:
		return "category"
	case EntityProduct:
		return "product"
	case EntitySubscription:
		return "subscription"
	case EntitySale:
		return "sale"
	case EntitySaleItem:
		return "sale_item"
	default:
		return "unspecified"
	}
}

// Actor субъект операции. System обходит все предикаты и создаётся только
// регистрацией, административным путём и планировщиком.
type Actor struct {
	UserUID uuid.UUID
	System  bool
}

// User возвращает субъекта для аутентифицированного пользователя.
func User(id uuid.UUID) Actor {
	return Actor{UserUID: id}
}

// System субъект системных процессов.
var System = Actor{System: true}

var (
	// ErrNotFound операция запрещена; снаружи выглядит как отсутствие строки.
	ErrNotFound = errors.New("not found")
	// ErrSubscriptionInactive у субъекта нет действующей подписки для регистрации продажи.
	ErrSubscriptionInactive = errors.New("subscription inactive or expired")
)
