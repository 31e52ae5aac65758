package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Способы оплаты продажи.
const (
	PaymentCash        = "cash"
	PaymentMobile      = "mobile_payment"
	PaymentZelle       = "zelle"
	PaymentCreditCard  = "credit_card"
	PaymentPointOfSale = "point_of_sale"
)

// Sale продажа. Курс обмена фиксируется на момент продажи и не пересчитывается.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	PaymentMethod string          `json:"payment_method"`
	IsCredit      bool            `json:"is_credit"`
	ClientName    *string         `json:"client_name"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleItem      `json:"items,omitempty"`
}

// SaleItem позиция продажи. Собственного владельца не хранит:
// владелец определяется через родительскую продажу.
type SaleItem struct {
	ID             uuid.UUID       `json:"id"`
	SaleID         uuid.UUID       `json:"sale_id"`
	ProductID      *uuid.UUID      `json:"product_id"`
	Quantity       int             `json:"quantity"`
	PriceAtSaleUSD decimal.Decimal `json:"price_at_sale_usd"`
}

// DummySale тело запроса на создание продажи.
type DummySale struct {
	TotalUSD      decimal.Decimal `json:"total_usd"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash mobile_payment zelle credit_card point_of_sale"`
	IsCredit      bool            `json:"is_credit"`
	ClientName    *string         `json:"client_name" validate:"omitempty,max=200"`
	Items         []DummySaleItem `json:"items" validate:"dive"`
}

// DummySaleItem тело запроса на добавление или изменение позиции.
type DummySaleItem struct {
	ProductID      *uuid.UUID      `json:"product_id"`
	Quantity       int             `json:"quantity" validate:"required,gt=0"`
	PriceAtSaleUSD decimal.Decimal `json:"price_at_sale_usd"`
}

// ErrInvalidPaymentMethod неизвестный тег способа оплаты.
var ErrInvalidPaymentMethod = errors.New("unknown payment method")

// ValidPaymentMethod проверяет тег способа оплаты.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentMobile, PaymentZelle, PaymentCreditCard, PaymentPointOfSale:
		return true
	}
	return false
}
