package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinStock порог минимального остатка по умолчанию.
const DefaultMinStock = 5

// Product товар пользователя. Пара (UserID, Barcode) уникальна,
// пустой штрихкод хранится как NULL и под ограничение не попадает.
type Product struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Name       string          `json:"name"`
	Barcode    *string         `json:"barcode"`
	PriceUSD   decimal.Decimal `json:"price_usd"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"min_stock"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DummyProduct тело запроса на создание или изменение товара.
type DummyProduct struct {
	CategoryID *uuid.UUID       `json:"category_id"`
	Name       string           `json:"name" validate:"required,max=200"`
	Barcode    *string          `json:"barcode" validate:"omitempty,max=64"`
	PriceUSD   *decimal.Decimal `json:"price_usd"`
	Stock      *int             `json:"stock" validate:"omitempty,min=0"`
	MinStock   *int             `json:"min_stock" validate:"omitempty,min=0"`
}

// ProductFilter параметры выборки списка товаров.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Barcode    *string
	Limit      int
	Offset     int
}
