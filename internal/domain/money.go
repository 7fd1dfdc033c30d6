package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxTransferCents caps a single transfer at 1,000,000.00.
const MaxTransferCents int64 = 100_000_000

var (
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountTooLarge    = errors.New("amount exceeds the transfer maximum")
	ErrAmountSubCent     = errors.New("amount has more than two decimal places")
)

// Money is a monetary value stored as BIGINT cents. Keeping arithmetic on
// int64 means reversing a debit restores the balance exactly, with no
// rounding drift.
type Money struct {
	Cents    int64
	Currency string // ISO 4217
}

// NewMoney creates a Money from cents.
func NewMoney(cents int64, currency string) Money {
	return Money{Cents: cents, Currency: currency}
}

// ToDecimal converts the cents to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(100))
}

// String renders the value with two decimal places.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(2), m.Currency)
}

// CentsFromDecimal converts a decimal amount to cents, rejecting values that
// are non-positive, finer than a cent, or above the transfer maximum.
func CentsFromDecimal(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	scaled := d.Mul(decimal.NewFromInt(100))
	if !scaled.IsInteger() {
		return 0, ErrAmountSubCent
	}
	cents := scaled.IntPart()
	if cents > MaxTransferCents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}
