package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyScale количество знаков после запятой у денежных полей и курса.
const MoneyScale = 2

// ErrInvalidAmount сумма отрицательна или содержит больше двух знаков после запятой.
var ErrInvalidAmount = errors.New("amount must be non-negative with at most 2 decimal places")

// ValidateAmount проверяет, что значение помещается в NUMERIC(12,2) без потери точности.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return ErrInvalidAmount
	}
	return nil
}
