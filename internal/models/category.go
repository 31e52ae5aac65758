package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor цвет категории, если клиент его не указал.
const DefaultCategoryColor = "#3b82f6"

// Category категория каталога, принадлежит ровно одному пользователю.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// DummyCategory тело запроса на создание или изменение категории.
type DummyCategory struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}
